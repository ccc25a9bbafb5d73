package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk/internal/auth"
	"github.com/quotedesk/quotedesk/internal/models"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Company{}, &models.Membership{}, &models.Invite{},
		&models.Customer{}, &models.Product{}, &models.Quote{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// seedTenant creates a user with a membership in a fresh company.
func seedTenant(t *testing.T, db *gorm.DB, role string) (models.User, models.Company) {
	t.Helper()
	user := models.User{Email: fmt.Sprintf("%s@%s.test", role, strings.ToLower(t.Name())), Password: "x", FirstName: "Test", LastName: "User"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	company := models.Company{
		Name: "Maple Renovations", Email: "hello@maple.test",
		Currency: "CAD", TaxName: "HST", TaxRate: 13, CreatedBy: user.ID,
	}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("company: %v", err)
	}
	m := models.Membership{UserID: user.ID, CompanyID: company.ID, Role: role}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("membership: %v", err)
	}
	return user, company
}

// joinTenant adds another user to an existing company.
func joinTenant(t *testing.T, db *gorm.DB, company models.Company, email, role string) models.User {
	t.Helper()
	user := models.User{Email: email, Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	m := models.Membership{UserID: user.ID, CompanyID: company.ID, Role: role}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("membership: %v", err)
	}
	return user
}

func authedRequest(method, target, body string, userID uint) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}
