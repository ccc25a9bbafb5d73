package tenant

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk/internal/models"
)

func setupResolverTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Company{}, &models.Membership{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestResolveBootstrapsCompanyOnFirstUse(t *testing.T) {
	db := setupResolverTestDB(t)
	user := models.User{Email: "jo@acme.test", Password: "x", FirstName: "Jo", LastName: "Field"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	r := NewResolver(db)

	tc, err := r.Resolve(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc.CompanyID == 0 || tc.Role != models.RoleOwner {
		t.Fatalf("bootstrap context: %#v", tc)
	}
	var company models.Company
	if err := db.First(&company, tc.CompanyID).Error; err != nil {
		t.Fatalf("company: %v", err)
	}
	if company.Name != "Jo Field" || company.CreatedBy != user.ID {
		t.Fatalf("company: %#v", company)
	}

	// Second resolve reuses the same company; nothing new is created.
	tc2, err := r.Resolve(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if tc2.CompanyID != tc.CompanyID {
		t.Fatalf("resolve not stable: %d then %d", tc.CompanyID, tc2.CompanyID)
	}
	var companies int64
	db.Model(&models.Company{}).Count(&companies)
	if companies != 1 {
		t.Fatalf("company count = %d", companies)
	}
}

func TestResolveFallsBackToEmailDomainName(t *testing.T) {
	db := setupResolverTestDB(t)
	user := models.User{Email: "ops@widgets.example", Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	tc, err := NewResolver(db).Resolve(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var company models.Company
	if err := db.First(&company, tc.CompanyID).Error; err != nil {
		t.Fatalf("company: %v", err)
	}
	if company.Name != "widgets.example" {
		t.Fatalf("company name = %q", company.Name)
	}
}

func TestResolvePrefersExistingMembership(t *testing.T) {
	db := setupResolverTestDB(t)
	user := models.User{Email: "sales@acme.test", Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	company := models.Company{Name: "Acme"}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("company: %v", err)
	}
	m := models.Membership{UserID: user.ID, CompanyID: company.ID, Role: models.RoleSales}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("membership: %v", err)
	}

	tc, err := NewResolver(db).Resolve(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc.CompanyID != company.ID || tc.Role != models.RoleSales {
		t.Fatalf("context: %#v", tc)
	}
}
