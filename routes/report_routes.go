package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xyber-shield/api-go/controllers"
	"github.com/xyber-shield/api-go/middleware"
	"golang.org/x/time/rate"
)

func SetupReportRoutes(api *gin.RouterGroup, reportController *controllers.ReportController) {
	reports := api.Group("/reports")
	{
		// Submission: anonymous allowed, linked to the account when a valid
		// token is sent, throttled per IP.
		reports.POST("",
			middleware.ReportRateLimit(rate.Every(time.Minute/5), 5),
			middleware.OptionalAuth(),
			reportController.SubmitReport)

		// Aggregate counts for the public dashboard
		reports.GET("/stats/overview", reportController.GetStats)

		// Caller's own reports
		reports.GET("/user/my-reports", middleware.AuthMiddleware(), reportController.GetMyReports)

		// Public status lookup by reference number
		reports.GET("/:reference", reportController.GetReportByReference)

		// Admin workflow
		reports.PATCH("/:reference/status", middleware.AuthMiddleware(), reportController.UpdateReportStatus)
	}
}
