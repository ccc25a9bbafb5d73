package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk/internal/auth"
	"github.com/quotedesk/quotedesk/internal/httpx"
	"github.com/quotedesk/quotedesk/internal/models"
	"github.com/quotedesk/quotedesk/internal/tenant"
	"github.com/quotedesk/quotedesk/internal/validation"
)

// AuthHandler covers register/login/logout. Tenant bootstrap happens lazily
// on the first resolved request, not at signup.
type AuthHandler struct {
	DB       *gorm.DB
	Resolver *tenant.Resolver
}

func NewAuthHandler(db *gorm.DB, res *tenant.Resolver) *AuthHandler {
	return &AuthHandler{DB: db, Resolver: res}
}

type credentialsRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	// Company seeds the bootstrapped tenant name when provided at signup.
	Company string `json:"company"`
}

// Register: POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	v := validation.Violations{}
	validation.Required("email", req.Email, v)
	validation.Email("email", req.Email, v)
	if len(req.Password) < 8 {
		v["password"] = "too_short"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	user := models.User{Email: req.Email, Password: string(hash), FirstName: req.FirstName, LastName: req.LastName}
	if err := h.DB.WithContext(r.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.JSONError(w, http.StatusBadRequest, "email_taken", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "registration_failed", nil)
		return
	}

	// Signup may carry a company name; bootstrap now so the first page load
	// already has a tenant.
	if req.Company != "" {
		company := models.Company{Name: strings.TrimSpace(req.Company), CreatedBy: user.ID}
		if err := h.DB.WithContext(r.Context()).Create(&company).Error; err == nil {
			m := models.Membership{UserID: user.ID, CompanyID: company.ID, Role: models.RoleOwner}
			_ = h.DB.WithContext(r.Context()).Create(&m).Error
		}
	}

	// Redeem any pending invites addressed to this email.
	var invites []models.Invite
	if err := h.DB.WithContext(r.Context()).Where("email = ? AND accepted_at IS NULL", req.Email).Find(&invites).Error; err == nil {
		for _, inv := range invites {
			m := models.Membership{UserID: user.ID, CompanyID: inv.CompanyID, Role: inv.Role}
			if err := h.DB.WithContext(r.Context()).Create(&m).Error; err == nil || errors.Is(err, gorm.ErrDuplicatedKey) {
				_ = h.DB.WithContext(r.Context()).Model(&inv).Update("accepted_at", time.Now()).Error
			}
		}
	}

	token := auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusCreated, map[string]any{"ok": true, "user_id": user.ID, "token": token})
}

// Login: POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	err := h.DB.WithContext(r.Context()).Where("email = ?", req.Email).First(&user).Error
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		// Same answer for unknown email and bad password.
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	token := auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true, "user_id": user.ID, "token": token})
}

// Logout: POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}
