package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/xyber-shield/api-go/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T, path string) *gorm.DB {
	t.Helper()

	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_PATH", path)

	db, err := ConnectDatabase()
	if err != nil {
		t.Fatalf("ConnectDatabase() error = %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idempotent.db")

	db := openTestDB(t, path)
	if err := db.Create(&models.User{Name: "A", Pseudo: "alpha", Email: "a@example.com", Password: "x"}).Error; err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Second init against the same file must not error or lose data.
	db2 := openTestDB(t, path)
	var count int64
	if err := db2.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 user after re-migration, got %d", count)
	}
}

func TestUniqueConstraints(t *testing.T) {
	db := openTestDB(t, filepath.Join(t.TempDir(), "unique.db"))

	user := models.User{Name: "A", Pseudo: "alpha", Email: "a@example.com", Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	dupEmail := models.User{Name: "B", Pseudo: "beta", Email: "a@example.com", Password: "x"}
	if err := db.Create(&dupEmail).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("Expected duplicated key error for email, got %v", err)
	}

	dupPseudo := models.User{Name: "C", Pseudo: "alpha", Email: "c@example.com", Password: "x"}
	if err := db.Create(&dupPseudo).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("Expected duplicated key error for pseudo, got %v", err)
	}

	report := models.Report{
		ReferenceNumber: "XS-TEST-0001",
		ReporterName:    "A",
		ReporterEmail:   "a@example.com",
		IncidentType:    "phishing",
		IncidentDate:    time.Now(),
		Description:     "first",
		Status:          models.ReportStatusPending,
		Priority:        models.ReportPriorityMedium,
	}
	if err := db.Create(&report).Error; err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	dupReference := report
	dupReference.ID = 0
	if err := db.Create(&dupReference).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("Expected duplicated key error for reference number, got %v", err)
	}
}

func TestReportFileCascadeDelete(t *testing.T) {
	db := openTestDB(t, filepath.Join(t.TempDir(), "cascade.db"))

	report := models.Report{
		ReferenceNumber: "XS-TEST-0002",
		ReporterName:    "A",
		ReporterEmail:   "a@example.com",
		IncidentType:    "malware",
		IncidentDate:    time.Now(),
		Description:     "with attachments",
		Status:          models.ReportStatusPending,
		Priority:        models.ReportPriorityMedium,
		Files: []models.ReportFile{
			{FileName: "a.bin", OriginalName: "evidence.bin", FilePath: "uploads/reports/a.bin", FileSize: 10, MimeType: "application/zip"},
			{FileName: "b.bin", OriginalName: "logs.txt", FilePath: "uploads/reports/b.bin", FileSize: 20, MimeType: "text/plain"},
		},
	}
	if err := db.Create(&report).Error; err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Hard delete so the foreign key cascade fires.
	if err := db.Unscoped().Delete(&report).Error; err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var remaining int64
	db.Model(&models.ReportFile{}).Where("report_id = ?", report.ID).Count(&remaining)
	if remaining != 0 {
		t.Errorf("Expected 0 report files after cascade delete, got %d", remaining)
	}
}

func TestNullableUserReferences(t *testing.T) {
	db := openTestDB(t, filepath.Join(t.TempDir(), "nullable.db"))

	// Anonymous report and activity rows carry no user reference.
	if err := db.Create(&models.ActivityLog{Activity: models.ActivityReportSubmitted, Description: "anonymous"}).Error; err != nil {
		t.Errorf("Expected nil user_id activity row to be accepted: %v", err)
	}

	user := models.User{Name: "A", Pseudo: "alpha", Email: "a@example.com", Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	report := models.Report{
		ReferenceNumber: "XS-TEST-0003",
		UserID:          &user.ID,
		ReporterName:    "A",
		ReporterEmail:   "a@example.com",
		IncidentType:    "ddos",
		IncidentDate:    time.Now(),
		Description:     "owned report",
		Status:          models.ReportStatusPending,
		Priority:        models.ReportPriorityMedium,
	}
	if err := db.Create(&report).Error; err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var owner models.User
	if err := db.First(&owner, *report.UserID).Error; err != nil {
		t.Errorf("Expected report owner to resolve: %v", err)
	}
}
