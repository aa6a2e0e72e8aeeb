package api

import (
	"fmt"
	"net/http"

	"stagelink/internal/cache"
	"stagelink/internal/config"
	"stagelink/internal/database"
	"stagelink/internal/external"
	"stagelink/internal/handlers"
	"stagelink/internal/logger"
	"stagelink/internal/messaging"
	"stagelink/internal/metrics"
	"stagelink/internal/middleware"
	"stagelink/internal/repository"
	"stagelink/internal/service"
	"stagelink/internal/signature"

	"github.com/gin-gonic/gin"
)

// Server wires the HTTP API together: storage, messaging, cache, the payment
// provider client and the route table.
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	redis    *cache.Client
	services *service.Services
}

func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}

	// The reconciled-id cache is a fast path only; the service runs without
	// it when redis is unreachable.
	redisClient, err := cache.NewClient(cfg.Redis)
	if err != nil {
		logger.Get().Warn("Redis unavailable, webhook replays will hit the database", "error", err)
		redisClient = nil
	}

	paymongoClient := external.NewPayMongoClient(cfg.PayMongo)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, natsClient, redisClient, paymongoClient, service.CheckoutURLs{
		Success: cfg.SuccessURL,
		Cancel:  cfg.CancelURL,
	})

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		redis:    redisClient,
		services: services,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	verifier := signature.NewVerifier(s.config.WebhookSecret, s.config.WebhookTolerance)
	h := handlers.NewHandlers(s.services, verifier)

	// Provider-facing delivery endpoint. Authenticated by signature, not by
	// session.
	s.router.POST("/webhooks/paymongo", h.HandlePaymentWebhook)

	api := s.router.Group("/api")
	{
		api.POST("/checkout-sessions", h.CreateCheckoutSession)
		api.POST("/payments/verify", h.VerifyPayment)
		api.POST("/tickets/claim", h.ClaimTicket)
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", metrics.Handler())
}

func (s *Server) healthCheck(c *gin.Context) {
	dbHealth := s.db.HealthCheck(c.Request.Context())

	status := http.StatusOK
	if dbHealth.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   dbHealth.Status,
		"service":  "stagelink-api",
		"database": dbHealth,
	})
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) Cleanup() error {
	log := logger.Get()

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Error("Error closing redis connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
