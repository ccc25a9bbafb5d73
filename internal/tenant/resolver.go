// Package tenant resolves the caller's company and role. The resolved
// Context is an explicit per-request value passed to every data-access call;
// there is deliberately no process-wide tenant state.
package tenant

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk/internal/models"
)

// Context identifies the caller inside one tenant.
type Context struct {
	UserID    uint
	CompanyID uint
	Role      string
}

// Resolver turns an authenticated user id into a tenant Context,
// bootstrapping a company and owner membership on first use.
type Resolver struct {
	DB *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver { return &Resolver{DB: db} }

// Resolve looks up the user's membership. When none exists (first login
// after signup) it bootstraps: reuse a company the user already created,
// else create one named after the user, then insert an owner membership.
// Bootstrap is idempotent under races: a duplicate-key on the membership
// insert is swallowed and the surviving row is re-read.
func (r *Resolver) Resolve(ctx context.Context, userID uint) (Context, error) {
	var m models.Membership
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id asc").First(&m).Error
	if err == nil {
		return Context{UserID: userID, CompanyID: m.CompanyID, Role: m.Role}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Context{}, err
	}
	return r.bootstrap(ctx, userID)
}

func (r *Resolver) bootstrap(ctx context.Context, userID uint) (Context, error) {
	db := r.DB.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return Context{}, err
	}

	var company models.Company
	err := db.Where("created_by = ?", userID).Order("id asc").First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		company = models.Company{Name: defaultCompanyName(user), CreatedBy: userID}
		if err := db.Create(&company).Error; err != nil {
			return Context{}, err
		}
		log.Info().Uint("user_id", userID).Uint("company_id", company.ID).Msg("bootstrapped company for first login")
	} else if err != nil {
		return Context{}, err
	}

	m := models.Membership{UserID: userID, CompanyID: company.ID, Role: models.RoleOwner}
	if err := db.Create(&m).Error; err != nil {
		// A concurrent request may have inserted the membership between our
		// lookup and this create; the unique index makes that safe to ignore.
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return Context{}, err
		}
	}
	var got models.Membership
	if err := db.Where("user_id = ?", userID).Order("id asc").First(&got).Error; err != nil {
		return Context{}, err
	}
	return Context{UserID: userID, CompanyID: got.CompanyID, Role: got.Role}, nil
}

func defaultCompanyName(u models.User) string {
	if name := u.FullName(); name != "" {
		return name
	}
	// Fall back to the email domain, e.g. "acme.com" for jo@acme.com.
	if at := strings.IndexByte(u.Email, '@'); at >= 0 && at+1 < len(u.Email) {
		return u.Email[at+1:]
	}
	return "My Company"
}
