package main

import (
	"log"
	"os"
	"strconv"
	"submission-review-api/config"
	"submission-review-api/controllers"
	"submission-review-api/middleware"
	"submission-review-api/routes"
	"submission-review-api/storage"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	// Initialize database
	config.InitDB()

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add logging middleware
	router.Use(gin.LoggerWithWriter(config.LogWriter))

	// Add recovery middleware
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	})

	// Add CORS middleware
	router.Use(middleware.CORSMiddleware())

	// Rate limiting: Redis-backed when REDIS_ADDR is configured,
	// in-process fixed window otherwise.
	var limiter middleware.Limiter
	if client := config.InitRedis(); client != nil {
		limiter = middleware.NewRedisLimiter(client, rateLimitPerMinute(), time.Minute)
		log.Println("Rate limiting backed by Redis")
	} else {
		limiter = middleware.NewMemoryLimiter(rateLimitPerMinute(), time.Minute)
		log.Println("Rate limiting backed by in-process counters")
	}
	router.Use(middleware.RateLimit(limiter))

	// Poster storage: S3 when a bucket is configured, local disk otherwise
	var store storage.Store
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		region := os.Getenv("AWS_REGION")
		if region == "" {
			region = "us-east-1"
		}
		store = storage.NewS3Store(region, bucket)
		log.Printf("Poster storage: S3 bucket %s (%s)", bucket, region)
	} else {
		uploadPath := os.Getenv("UPLOAD_PATH")
		if uploadPath == "" {
			uploadPath = "./uploads"
		}
		if err := os.MkdirAll(uploadPath, os.ModePerm); err != nil {
			log.Printf("Warning: Failed to create upload directory: %v", err)
		}
		store = storage.NewLocalStore(uploadPath)
		log.Printf("Poster storage: local directory %s", uploadPath)
	}

	controllers.Init(config.DB, store)

	// Setup routes
	routes.SetupRoutes(router)

	// Start server
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server starting on port %s", port)
	log.Printf("📊 Database connected successfully")
	log.Printf("🔒 Security middlewares enabled")
	log.Printf("🌐 CORS configured for allowed origins")

	if ginMode == "release" {
		log.Printf("🏭 Running in production mode")
	} else {
		log.Printf("🔧 Running in development mode")
	}

	if err := router.Run(":" + port); err != nil {
		log.Fatal("❌ Failed to start server:", err)
	}
}

func rateLimitPerMinute() int {
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 120
}
