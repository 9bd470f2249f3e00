package controllers

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/xyber-shield/api-go/models"
	"github.com/xyber-shield/api-go/storage"
	"github.com/xyber-shield/api-go/utils"
	"gorm.io/gorm"
)

const (
	maxReportFiles      = 5
	maxReportFileSize   = 10 << 20 // 10 MB per file
	referenceMinLength  = 5
	referenceRetryCount = 3
	myReportsLimit      = 20
)

var allowedAttachmentTypes = map[string]bool{
	"image/jpeg":                   true,
	"image/png":                    true,
	"image/gif":                    true,
	"application/pdf":              true,
	"text/plain":                   true,
	"text/csv":                     true,
	"application/zip":              true,
	"application/x-zip-compressed": true,
}

type ReportController struct {
	DB      *gorm.DB
	Storage storage.Store
}

func NewReportController(db *gorm.DB, store storage.Store) *ReportController {
	return &ReportController{
		DB:      db,
		Storage: store,
	}
}

type ReportInput struct {
	ReporterName       string `form:"reporterName" binding:"required,min=2,max=100"`
	ReporterEmail      string `form:"reporterEmail" binding:"required,email"`
	ReporterPhone      string `form:"reporterPhone" binding:"omitempty,max=30"`
	Organization       string `form:"organization" binding:"omitempty,max=200"`
	IncidentType       string `form:"incidentType" binding:"required,oneof=phishing malware ransomware data_breach ddos social_engineering insider_threat other"`
	IncidentDate       string `form:"incidentDate" binding:"required"`
	Location           string `form:"location" binding:"omitempty,max=200"`
	Description        string `form:"description" binding:"required,min=20"`
	ImpactLevel        string `form:"impactLevel" binding:"omitempty,oneof=low medium high critical"`
	AffectedSystems    string `form:"affectedSystems"`
	PreviousIncidents  string `form:"previousIncidents"`
	SecurityMeasures   string `form:"securityMeasures"`
	AdditionalComments string `form:"additionalComments"`
}

// stagedUpload tracks one attachment between staging and commit.
type stagedUpload struct {
	stagingKey   string
	storedName   string
	originalName string
	size         int64
	mimeType     string
}

func (rc *ReportController) SubmitReport(c *gin.Context) {
	var input ReportInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, StandardResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  formatValidationErrors(err),
		})
		return
	}

	incidentDate, err := parseIncidentDate(input.IncidentDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, StandardResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  []FieldError{{Field: "incidentDate", Message: "Must be a valid date (YYYY-MM-DD)"}},
		})
		return
	}

	files, errList := collectAttachments(c)
	if errList != nil {
		c.JSON(http.StatusBadRequest, StandardResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  errList,
		})
		return
	}

	staged, err := rc.stageAttachments(c, files)
	if err != nil {
		rc.discardStaged(c, staged)
		rc.serverError(c, "Failed to store uploaded files", err)
		return
	}

	var userID *uint
	if claims := utils.GetUser(c); claims != nil {
		userID = &claims.UserID
	}

	report := models.Report{
		UserID:             userID,
		ReporterName:       strings.TrimSpace(input.ReporterName),
		ReporterEmail:      strings.ToLower(strings.TrimSpace(input.ReporterEmail)),
		ReporterPhone:      strings.TrimSpace(input.ReporterPhone),
		Organization:       strings.TrimSpace(input.Organization),
		IncidentType:       input.IncidentType,
		IncidentDate:       incidentDate,
		Location:           strings.TrimSpace(input.Location),
		Description:        strings.TrimSpace(input.Description),
		ImpactLevel:        input.ImpactLevel,
		AffectedSystems:    strings.TrimSpace(input.AffectedSystems),
		PreviousIncidents:  parseBoolField(input.PreviousIncidents),
		SecurityMeasures:   strings.TrimSpace(input.SecurityMeasures),
		AdditionalComments: strings.TrimSpace(input.AdditionalComments),
		IPAddress:          c.ClientIP(),
		UserAgent:          c.Request.UserAgent(),
		Status:             models.ReportStatusPending,
		Priority:           models.ReportPriorityMedium,
	}

	if err := rc.insertWithReference(&report, staged); err != nil {
		rc.discardStaged(c, staged)
		rc.serverError(c, "Failed to submit report", err)
		return
	}

	// Database rows are committed; move staged files to permanent storage.
	// A failed move leaves a file row without its file, so the gap is logged
	// and written to the audit trail where operators can find it.
	for _, s := range staged {
		if err := rc.Storage.Commit(c.Request.Context(), s.stagingKey, s.storedName); err != nil {
			log.Printf("Failed to commit attachment %s for report %s: %v", s.storedName, report.ReferenceNumber, err)
			recordActivity(rc.DB, c, nil, models.ActivityFileCommitError,
				fmt.Sprintf("Attachment %s for report %s is missing from storage", s.storedName, report.ReferenceNumber))
		}
	}

	if userID != nil {
		recordActivity(rc.DB, c, userID, models.ActivityReportSubmitted,
			fmt.Sprintf("Report %s submitted", report.ReferenceNumber))
	}

	fileSummaries := make([]gin.H, 0, len(report.Files))
	for _, f := range report.Files {
		fileSummaries = append(fileSummaries, gin.H{
			"id":           f.ID,
			"originalName": f.OriginalName,
			"size":         f.FileSize,
		})
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Message: "Report submitted successfully",
		Data: gin.H{
			"referenceNumber": report.ReferenceNumber,
			"reportId":        report.ID,
			"status":          report.Status,
			"filesUploaded":   len(report.Files),
			"files":           fileSummaries,
		},
	})
}

// insertWithReference writes the report and its file rows in one transaction,
// regenerating the reference number on a uniqueness collision.
func (rc *ReportController) insertWithReference(report *models.Report, staged []stagedUpload) error {
	var err error
	for attempt := 0; attempt < referenceRetryCount; attempt++ {
		report.ReferenceNumber = utils.GenerateReferenceNumber()
		report.Files = report.Files[:0]
		for _, s := range staged {
			report.Files = append(report.Files, models.ReportFile{
				FileName:     s.storedName,
				OriginalName: s.originalName,
				FilePath:     rc.Storage.PermanentPath(s.storedName),
				FileSize:     s.size,
				MimeType:     s.mimeType,
			})
		}

		err = rc.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Create(report).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		report.ID = 0
	}
	return err
}

func (rc *ReportController) stageAttachments(c *gin.Context, files []*multipart.FileHeader) ([]stagedUpload, error) {
	staged := make([]stagedUpload, 0, len(files))

	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return staged, err
		}

		contentType := fh.Header.Get("Content-Type")
		key, err := rc.Storage.Stage(c.Request.Context(), src, fh.Size, contentType)
		src.Close()
		if err != nil {
			return staged, err
		}

		staged = append(staged, stagedUpload{
			stagingKey:   key,
			storedName:   uuid.New().String() + strings.ToLower(filepath.Ext(fh.Filename)),
			originalName: filepath.Base(fh.Filename),
			size:         fh.Size,
			mimeType:     contentType,
		})
	}

	return staged, nil
}

func (rc *ReportController) discardStaged(c *gin.Context, staged []stagedUpload) {
	for _, s := range staged {
		if err := rc.Storage.Discard(c.Request.Context(), s.stagingKey); err != nil {
			log.Printf("Failed to discard staged file %s: %v", s.stagingKey, err)
		}
	}
}

func (rc *ReportController) GetReportByReference(c *gin.Context) {
	reference := strings.TrimSpace(c.Param("reference"))
	if len(reference) < referenceMinLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reference number", "success": false})
		return
	}

	var report models.Report
	if err := rc.DB.Where("reference_number = ?", reference).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found", "success": false})
			return
		}
		rc.serverError(c, "Failed to fetch report", err)
		return
	}

	var fileCount int64
	if err := rc.DB.Model(&models.ReportFile{}).Where("report_id = ?", report.ID).Count(&fileCount).Error; err != nil {
		rc.serverError(c, "Failed to fetch report", err)
		return
	}

	// Public projection: never expose reporter contact details or request
	// metadata through the shareable reference.
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: gin.H{
			"referenceNumber": report.ReferenceNumber,
			"incidentType":    report.IncidentType,
			"incidentDate":    report.IncidentDate,
			"status":          report.Status,
			"priority":        report.Priority,
			"createdAt":       report.CreatedAt,
			"updatedAt":       report.UpdatedAt,
			"fileCount":       fileCount,
		},
	})
}

func (rc *ReportController) GetMyReports(c *gin.Context) {
	claims := utils.GetUser(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "success": false})
		return
	}

	var reports []models.Report
	if err := rc.DB.Preload("Files").
		Where("user_id = ?", claims.UserID).
		Order("created_at DESC").
		Limit(myReportsLimit).
		Find(&reports).Error; err != nil {
		rc.serverError(c, "Failed to fetch reports", err)
		return
	}

	items := make([]gin.H, 0, len(reports))
	for _, r := range reports {
		items = append(items, gin.H{
			"referenceNumber": r.ReferenceNumber,
			"incidentType":    r.IncidentType,
			"incidentDate":    r.IncidentDate,
			"location":        r.Location,
			"description":     r.Description,
			"impactLevel":     r.ImpactLevel,
			"status":          r.Status,
			"priority":        r.Priority,
			"createdAt":       r.CreatedAt,
			"updatedAt":       r.UpdatedAt,
			"fileCount":       len(r.Files),
		})
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    items,
	})
}

func (rc *ReportController) GetStats(c *gin.Context) {
	var total int64
	if err := rc.DB.Model(&models.Report{}).Count(&total).Error; err != nil {
		rc.serverError(c, "Failed to compute statistics", err)
		return
	}

	type bucket struct {
		Label string
		Total int64
	}

	var byStatus []bucket
	if err := rc.DB.Model(&models.Report{}).
		Select("status AS label, COUNT(*) AS total").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		rc.serverError(c, "Failed to compute statistics", err)
		return
	}

	var byPriority []bucket
	if err := rc.DB.Model(&models.Report{}).
		Select("priority AS label, COUNT(*) AS total").
		Group("priority").
		Scan(&byPriority).Error; err != nil {
		rc.serverError(c, "Failed to compute statistics", err)
		return
	}

	var lastThirtyDays int64
	if err := rc.DB.Model(&models.Report{}).
		Where("created_at >= ?", time.Now().AddDate(0, 0, -30)).
		Count(&lastThirtyDays).Error; err != nil {
		rc.serverError(c, "Failed to compute statistics", err)
		return
	}

	statusCounts := gin.H{}
	for _, b := range byStatus {
		statusCounts[b.Label] = b.Total
	}
	priorityCounts := gin.H{}
	for _, b := range byPriority {
		priorityCounts[b.Label] = b.Total
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: gin.H{
			"totalReports":   total,
			"byStatus":       statusCounts,
			"byPriority":     priorityCounts,
			"lastThirtyDays": lastThirtyDays,
		},
	})
}

func (rc *ReportController) UpdateReportStatus(c *gin.Context) {
	claims := utils.GetUser(c)
	if claims == nil || claims.Role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required", "success": false})
		return
	}

	reference := strings.TrimSpace(c.Param("reference"))
	if len(reference) < referenceMinLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reference number", "success": false})
		return
	}

	var input struct {
		Status     string `json:"status" binding:"required,oneof=pending in_review resolved dismissed"`
		Priority   string `json:"priority" binding:"omitempty,oneof=low medium high critical"`
		AssignedTo string `json:"assignedTo"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	var report models.Report
	if err := rc.DB.Where("reference_number = ?", reference).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found", "success": false})
			return
		}
		rc.serverError(c, "Failed to fetch report", err)
		return
	}

	updates := map[string]interface{}{"status": input.Status}
	if input.Priority != "" {
		updates["priority"] = input.Priority
	}
	if input.AssignedTo != "" {
		updates["assigned_to"] = input.AssignedTo
	}

	if err := rc.DB.Model(&report).Updates(updates).Error; err != nil {
		rc.serverError(c, "Failed to update report", err)
		return
	}

	recordActivity(rc.DB, c, &claims.UserID, models.ActivityStatusChanged,
		fmt.Sprintf("Report %s status set to %s", report.ReferenceNumber, input.Status))

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Message: "Report updated successfully",
		Data: gin.H{
			"referenceNumber": report.ReferenceNumber,
			"status":          report.Status,
			"priority":        report.Priority,
			"assignedTo":      report.AssignedTo,
		},
	})
}

// serverError responds 500 with a generic message; error detail is included
// only outside release mode.
func (rc *ReportController) serverError(c *gin.Context, message string, err error) {
	log.Printf("%s: %v", message, err)

	body := gin.H{"success": false, "message": message}
	if gin.Mode() != gin.ReleaseMode {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

func collectAttachments(c *gin.Context) ([]*multipart.FileHeader, []FieldError) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, nil
	}

	files := form.File["files"]
	if len(files) > maxReportFiles {
		return nil, []FieldError{{Field: "files", Message: fmt.Sprintf("Maximum %d files allowed per report", maxReportFiles)}}
	}

	for _, fh := range files {
		if fh.Size > maxReportFileSize {
			return nil, []FieldError{{Field: "files", Message: fmt.Sprintf("File %s exceeds the 10 MB limit", filepath.Base(fh.Filename))}}
		}
		if !allowedAttachmentTypes[fh.Header.Get("Content-Type")] {
			return nil, []FieldError{{Field: "files", Message: fmt.Sprintf("File type not allowed for %s", filepath.Base(fh.Filename))}}
		}
	}

	return files, nil
}

func parseIncidentDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// parseBoolField coerces checkbox-style form values.
func parseBoolField(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

func formatValidationErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "form", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fieldName(fe), Message: validationMessage(fe)})
	}
	return out
}

func fieldName(fe validator.FieldError) string {
	// Match the form field names rather than Go struct fields.
	name := fe.Field()
	return strings.ToLower(name[:1]) + name[1:]
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return "Invalid value"
	}
}
