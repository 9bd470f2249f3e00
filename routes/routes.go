package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/xyber-shield/api-go/controllers"
	"github.com/xyber-shield/api-go/middleware"
	"github.com/xyber-shield/api-go/storage"
	"gorm.io/gorm"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, store storage.Store) {
	// Initialize controllers
	authController := controllers.NewAuthController(db)
	reportController := controllers.NewReportController(db, store)

	// Public routes
	public := r.Group("/api")
	{
		public.POST("/register", authController.Register)
		public.POST("/login", authController.Login)
		public.POST("/refresh-token", authController.RefreshToken)
		if authController.GoogleConfig != nil {
			public.POST("/auth/google", authController.GoogleLogin)
		}
	}

	// Protected routes
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.POST("/logout", authController.Logout)
		protected.GET("/profile", authController.GetProfile)
		protected.PUT("/profile", authController.UpdateProfile)
	}

	SetupReportRoutes(r.Group("/api"), reportController)
}
