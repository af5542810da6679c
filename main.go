// main.go
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/medisync/hms-backend/config"
	"github.com/medisync/hms-backend/endpoint"
	"github.com/medisync/hms-backend/middleware"
	"github.com/medisync/hms-backend/model"
	"github.com/medisync/hms-backend/util"
)

func migrateModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Session{},
		&model.Doctor{},
		&model.Patient{},
		&model.Appointment{},
		&model.MedicalRecord{},
		&model.SecurityLog{},
	)
}

func registerRoutes(router *gin.Engine, cfg *config.Config) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	// Public surface. Credential endpoints are rate limited per client IP.
	loginLimiter := middleware.RateLimiter(middleware.RateLimitConfig{})
	router.POST("/signup", loginLimiter, endpoint.Signup)
	router.POST("/login", loginLimiter, endpoint.Login)
	router.GET("/token/validate", endpoint.ValidateToken)
	router.GET("/doctors", endpoint.ListDoctors)
	router.GET("/doctors/:id", endpoint.GetDoctor)

	// Session-authenticated surface
	auth := router.Group("/")
	auth.Use(middleware.ValidateLoginToken())
	{
		auth.DELETE("/logout", endpoint.Logout)
		auth.POST("/verify-password", endpoint.VerifyPassword)
		auth.GET("/users/me", endpoint.GetCurrentUser)

		auth.POST("/appointments", endpoint.CreateAppointment)
		auth.GET("/appointments", endpoint.ListAppointments)
		auth.GET("/appointments/today", endpoint.TodayAppointments)
		auth.PATCH("/appointments/:id/status", endpoint.UpdateAppointmentStatus)

		auth.POST("/medical-records", endpoint.CreateMedicalRecord)
		auth.GET("/medical-records", endpoint.ListMedicalRecords)
		auth.GET("/medical-records/:id", endpoint.GetMedicalRecord)

		admin := auth.Group("/patients")
		admin.Use(middleware.RequireRole(model.RoleAdmin))
		{
			admin.GET("", endpoint.ListPatients)
			admin.GET(":id", endpoint.GetPatient)
		}
	}
}

func main() {
	logger := util.AppLogger()

	cfg := config.LoadConfig()
	util.SetJWTSecret(os.Getenv("JWTSECRET"))

	db, err := config.ConnectMySQL()
	if err != nil {
		logger.Fatalf("error connecting to database: %v", err)
	}

	if err := migrateModels(db); err != nil {
		logger.Fatalf("auto migrate failed: %v", err)
	}
	if err := model.SeedRoles(db); err != nil {
		logger.Fatalf("seeding roles failed: %v", err)
	}

	// Security events are persisted alongside the request data.
	util.SetSecurityLoggerDB(db)

	if _, err := config.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, session cache and rate limiting degraded: %v", err)
	}

	if geoipPath := os.Getenv("GEOIP_DB_PATH"); geoipPath != "" {
		if err := util.InitGeoIP(geoipPath); err != nil {
			logger.Warnf("geoip init failed, security logs will omit location: %v", err)
		} else {
			defer util.CloseGeoIP()
		}
	}

	// Purge expired sessions nightly so the table does not grow unbounded.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@daily", func() {
		result := db.Unscoped().
			Where("expires_at < ?", time.Now()).
			Delete(&model.Session{})
		if result.Error != nil {
			logger.WithError(result.Error).Error("expired session purge failed")
			return
		}
		logger.WithField("purged", result.RowsAffected).Info("expired sessions purged")
	}); err != nil {
		logger.Fatalf("failed to schedule session purge: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.EndpointCallLogger())

	registerRoutes(router, cfg)

	address := fmt.Sprintf(":%d", cfg.AppPort)
	logger.WithField("address", address).Infof("%s listening", cfg.AppName)
	if err := router.Run(address); err != nil {
		logger.Fatalf("error starting server: %v", err)
	}
}
