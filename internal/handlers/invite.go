package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk/internal/config"
	"github.com/quotedesk/quotedesk/internal/gate"
	"github.com/quotedesk/quotedesk/internal/httpx"
	"github.com/quotedesk/quotedesk/internal/mail"
	"github.com/quotedesk/quotedesk/internal/models"
	"github.com/quotedesk/quotedesk/internal/monitoring"
	"github.com/quotedesk/quotedesk/internal/tenant"
	"github.com/quotedesk/quotedesk/internal/validation"
)

// InviteHandler implements POST /invite-user, the admin-only team invite.
type InviteHandler struct {
	DB       *gorm.DB
	Resolver *tenant.Resolver
	Mail     *mail.Client
	Cfg      config.Config
}

func NewInviteHandler(db *gorm.DB, res *tenant.Resolver, m *mail.Client, cfg config.Config) *InviteHandler {
	return &InviteHandler{DB: db, Resolver: res, Mail: m, Cfg: cfg}
}

const inviteTTL = 7 * 24 * time.Hour

func (h *InviteHandler) Invite(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	if err := gate.Authorize(tc.Role, "team:manage"); err != nil {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}

	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))

	v := validation.Violations{}
	validation.Required("email", req.Email, v)
	validation.Email("email", req.Email, v)
	// Ownership is transferred, never granted by invite.
	validation.OneOf("role", req.Role, []string{models.RoleAdmin, models.RoleSales}, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	db := h.DB.WithContext(r.Context())

	invite := models.Invite{
		CompanyID: tc.CompanyID,
		Email:     req.Email,
		Role:      req.Role,
		Token:     uuid.NewString(),
		InvitedBy: tc.UserID,
		ExpiresAt: time.Now().Add(inviteTTL),
	}
	if err := db.Create(&invite).Error; err != nil {
		log.Error().Err(err).Msg("invite insert failed")
		httpx.JSONError(w, http.StatusInternalServerError, "invite_failed", nil)
		return
	}

	// When the invitee already has an account the membership takes effect
	// immediately; the email is just a heads-up.
	var existing models.User
	memberNow := false
	if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		m := models.Membership{UserID: existing.ID, CompanyID: tc.CompanyID, Role: req.Role}
		if err := db.Create(&m).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Error().Err(err).Msg("membership insert failed")
			httpx.JSONError(w, http.StatusInternalServerError, "invite_failed", nil)
			return
		}
		memberNow = true
	}

	var company models.Company
	companyName := "your team"
	if err := db.First(&company, tc.CompanyID).Error; err == nil {
		companyName = company.Name
	}
	inviteURL := strings.TrimSuffix(h.Cfg.PublicBaseURL, "/") + "/invite?token=" + invite.Token
	emailStatus := "sent"
	msg := mail.Invite(req.Email, companyName, req.Role, inviteURL, invite.ExpiresAt.Format("2006-01-02"))
	if err := h.Mail.Send(r.Context(), msg); err != nil {
		log.Warn().Err(err).Str("to", req.Email).Msg("invite email failed")
		monitoring.EmailsSent.WithLabelValues("invite", "failed").Inc()
		emailStatus = "failed"
	} else {
		monitoring.EmailsSent.WithLabelValues("invite", "sent").Inc()
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"role":       req.Role,
		"member_now": memberNow,
		"email":      emailStatus,
	})
}
