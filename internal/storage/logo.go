// Package storage holds per-company logo files under a conventional bucket
// layout: {company_id}/logo.{ext}. Missing files fall back to a generated
// SVG placeholder keyed on company initials, so <img> consumers never see
// an error.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ErrNotFound is returned when no logo exists for a company.
var ErrNotFound = errors.New("logo_not_found")

var knownExts = []string{"png", "jpg", "jpeg", "svg", "webp", "gif"}

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"svg":  "image/svg+xml",
	"webp": "image/webp",
	"gif":  "image/gif",
}

// LogoStore is a filesystem-backed bucket.
type LogoStore struct {
	root string
}

func NewLogoStore(root string) *LogoStore { return &LogoStore{root: root} }

// Path returns the bucket-relative path for a company logo.
func Path(companyID uint, ext string) string {
	return fmt.Sprintf("%d/logo.%s", companyID, strings.TrimPrefix(ext, "."))
}

// Save writes the logo bytes, replacing any previous logo regardless of
// extension, and returns the stored bucket path.
func (s *LogoStore) Save(companyID uint, ext string, data []byte) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if _, ok := contentTypes[ext]; !ok {
		return "", fmt.Errorf("unsupported logo extension %q", ext)
	}
	dir := filepath.Join(s.root, fmt.Sprint(companyID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	for _, e := range knownExts {
		if e != ext {
			_ = os.Remove(filepath.Join(dir, "logo."+e))
		}
	}
	rel := Path(companyID, ext)
	if err := os.WriteFile(filepath.Join(s.root, rel), data, 0o644); err != nil {
		return "", err
	}
	return rel, nil
}

// Read returns the stored logo bytes and content type, probing the known
// extensions in order.
func (s *LogoStore) Read(companyID uint) ([]byte, string, error) {
	for _, ext := range knownExts {
		b, err := os.ReadFile(filepath.Join(s.root, Path(companyID, ext)))
		if err == nil {
			return b, contentTypes[ext], nil
		}
	}
	return nil, "", ErrNotFound
}

// Initials derives up to two uppercase initials from a company name.
func Initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				out = append(out, unicode.ToUpper(r))
				break
			}
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

// PlaceholderSVG renders a square monogram badge for companies without an
// uploaded logo. Deterministic for a given name and color.
func PlaceholderSVG(name, brandColor string) []byte {
	color := brandColor
	if color == "" || !strings.HasPrefix(color, "#") {
		color = "#4a5568"
	}
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="128" height="128" viewBox="0 0 128 128">`+
		`<rect width="128" height="128" rx="16" fill="%s"/>`+
		`<text x="64" y="64" dy="0.36em" text-anchor="middle" font-family="Helvetica, Arial, sans-serif" font-size="52" fill="#ffffff">%s</text>`+
		`</svg>`, color, Initials(name))
	return []byte(svg)
}
