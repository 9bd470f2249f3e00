package controllers

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/xyber-shield/api-go/models"
	"gorm.io/gorm"
)

// recordActivity appends an audit log row. Failures are logged, never
// propagated: audit logging must not fail the request that triggered it.
func recordActivity(db *gorm.DB, c *gin.Context, userID *uint, activity, description string) {
	entry := models.ActivityLog{
		UserID:      userID,
		Activity:    activity,
		Description: description,
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	}

	if err := db.Create(&entry).Error; err != nil {
		log.Printf("Failed to record %s activity: %v", activity, err)
	}
}
