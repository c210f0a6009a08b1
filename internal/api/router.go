package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/MihaiVoinica/AdminBloc/internal/api/handlers"
	"github.com/MihaiVoinica/AdminBloc/internal/api/middleware"
	"github.com/MihaiVoinica/AdminBloc/internal/config"
	"github.com/MihaiVoinica/AdminBloc/internal/models"
	"github.com/MihaiVoinica/AdminBloc/internal/services"
	"github.com/MihaiVoinica/AdminBloc/internal/storage"
	"github.com/MihaiVoinica/AdminBloc/internal/tasks"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient tasks.Enqueuer) *gin.Engine {
	userService := services.NewUserService(db, cfg)
	buildingService := services.NewBuildingService(db)
	apartmentService := services.NewApartmentService(db, buildingService)
	billingService := services.NewBillingService(db, buildingService)
	ticketService := services.NewTicketService(db, buildingService, apartmentService)

	s3StorageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize S3 storage for API: %v", err)
	}
	fileService := services.NewFileService(db, buildingService, userService, s3StorageService)

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	authHandler := handlers.NewAuthHandler(cfg, userService, taskClient)
	buildingHandler := handlers.NewBuildingHandler(buildingService, billingService)
	apartmentHandler := handlers.NewApartmentHandler(apartmentService)
	fileHandler := handlers.NewFileHandler(fileService)
	ticketHandler := handlers.NewTicketHandler(ticketService)

	authRequired := middleware.AuthMiddleware(cfg.JwtSecret)
	adminOnly := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
	superAdminOnly := middleware.RequireRoles(models.RoleSuperAdmin)

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/validate-user/:token", authHandler.ValidateUser)
		authGroup.POST("/activate-user/:token", authHandler.ActivateUser)

		authGroup.POST("/register", authRequired, adminOnly, authHandler.Register)
		authGroup.GET("/users", authRequired, superAdminOnly, authHandler.ListUsers)
	}

	buildings := r.Group("/buildings", authRequired)
	{
		buildings.GET("/list", buildingHandler.List)

		buildings.POST("/create", superAdminOnly, buildingHandler.Create)
		buildings.PATCH("/assign-manager/:buildingId", superAdminOnly, buildingHandler.AssignManager)
		buildings.PATCH("/remove-manager/:buildingId", superAdminOnly, buildingHandler.RemoveManager)

		buildings.POST("/update/:buildingId", adminOnly, buildingHandler.Update)
		buildings.PATCH("/remove/:buildingId", adminOnly, buildingHandler.Remove)
		buildings.PATCH("/create-bill/:buildingId", adminOnly, buildingHandler.CreateBill)
		buildings.PATCH("/remove-bill/:buildingId", adminOnly, buildingHandler.RemoveBill)
		buildings.POST("/generate-bills/:buildingId", adminOnly, buildingHandler.GenerateBills)
	}

	apartments := r.Group("/apartments", authRequired)
	{
		apartments.GET("/list", apartmentHandler.List)
		// Residents submit their own readings.
		apartments.PATCH("/update-meter/:apartmentId", apartmentHandler.UpdateMeter)

		apartments.POST("/create", adminOnly, apartmentHandler.Create)
		apartments.POST("/update/:apartmentId", adminOnly, apartmentHandler.Update)
		apartments.PATCH("/remove/:apartmentId", adminOnly, apartmentHandler.Remove)
		apartments.PATCH("/assign-owner/:apartmentId", adminOnly, apartmentHandler.AssignOwner)
		apartments.PATCH("/remove-owner/:apartmentId", adminOnly, apartmentHandler.RemoveOwner)
		apartments.PATCH("/create-meter/:apartmentId", adminOnly, apartmentHandler.CreateMeter)
		apartments.PATCH("/remove-meter/:apartmentId", adminOnly, apartmentHandler.RemoveMeter)
		apartments.PATCH("/add-payment/:apartmentId", adminOnly, apartmentHandler.AddPayment)
	}

	files := r.Group("/files", authRequired)
	{
		files.GET("/list", fileHandler.List)
		files.GET("/download", fileHandler.Download)
		files.POST("/create", adminOnly, fileHandler.Create)
		files.PATCH("/remove/:fileId", adminOnly, fileHandler.Remove)
	}

	tickets := r.Group("/tickets", authRequired)
	{
		tickets.GET("/list", ticketHandler.List)
		tickets.POST("/create", ticketHandler.Create)
		tickets.PATCH("/remove/:ticketId", ticketHandler.Remove)
		tickets.PATCH("/confirm/:ticketId", adminOnly, ticketHandler.Confirm)
		tickets.PATCH("/resolve/:ticketId", adminOnly, ticketHandler.Resolve)
	}

	return r
}

// SetupServiceRouter configures the private service engine: shutdown
// and mock-email retrieval for end to end tests.
func SetupServiceRouter(cfg *config.Config, rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			log.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				log.Println("Shutdown channel already signaled or blocked.")
			}

		case "getTestEmail":
			var args []string // expect [kind, email]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [kind, email]"})
				return
			}
			redisKey := fmt.Sprintf("mockemail:%s:%s", args[1], args[0])

			var emailJsonData string
			var getErr error
			found := false
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			for i := 0; i < 10; i++ {
				emailJsonData, getErr = rdb.Get(ctx, redisKey).Result()
				if getErr == nil {
					found = true
					rdb.Del(ctx, redisKey)
					break
				}
				if getErr != redis.Nil {
					log.Printf("Service API: Error getting key %s from Redis: %v", redisKey, getErr)
					c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
					return
				}
				time.Sleep(200 * time.Millisecond)
			}

			if !found {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found in Redis for key %s", redisKey)})
				return
			}

			var emailData map[string]interface{}
			if err := json.Unmarshal([]byte(emailJsonData), &emailData); err != nil {
				log.Printf("Service API: Error unmarshalling email data from key %s: %v", redisKey, err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored email data"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "data": emailData})

		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
