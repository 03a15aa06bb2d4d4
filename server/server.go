package server

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/carlospion/AvocadoLegal/config"
	"github.com/carlospion/AvocadoLegal/handlers"
	"github.com/carlospion/AvocadoLegal/kafka"
	"github.com/carlospion/AvocadoLegal/limiter"
	custommiddleware "github.com/carlospion/AvocadoLegal/middleware"
	"github.com/carlospion/AvocadoLegal/models"
	"github.com/carlospion/AvocadoLegal/redis"
	"github.com/carlospion/AvocadoLegal/services"
)

type Server struct {
	Echo                 *echo.Echo
	DB                   *gorm.DB
	Config               *config.Config
	PlatformHandler      *handlers.PlatformHandler
	LoanHandler          *handlers.LoanHandler
	ConversationHandler  *handlers.ConversationHandler
	LawyerHandler        *handlers.LawyerHandler
	ChatWebSocketHandler *handlers.ChatWebSocketHandler

	consumer *kafka.Consumer
	cancel   context.CancelFunc
}

func NewServer() *Server {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := models.AutoMigrateAll(db); err != nil {
		log.Fatal("Failed to auto-migrate database:", err)
	}

	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis:", err)
	}

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.PATCH},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentLength},
		MaxAge:           86400,
	}))

	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		saramaConfig, err := kafka.NewSaramaConfig(&cfg.Kafka)
		if err != nil {
			log.Fatal("Failed to build kafka config:", err)
		}
		producer, err = kafka.NewProducer(cfg.Kafka.Brokers, saramaConfig)
		if err != nil {
			log.Fatal("Failed to connect to kafka:", err)
		}
	}

	authService := services.NewAuthService(db, &cfg.Auth)
	platformService := services.NewPlatformService(db)
	loanService := services.NewLoanService(db)
	lawyerService := services.NewLawyerService(db)

	var notificationService *services.NotificationService
	if producer != nil {
		notificationService = services.NewNotificationService(db, producer, cfg.Kafka.NotificationTopic)
	} else {
		notificationService = services.NewNotificationService(db, nil, cfg.Kafka.NotificationTopic)
	}

	assignmentService := services.NewAssignmentService(db, services.OnShiftFirstRanking{}, notificationService)
	conversationService := services.NewConversationService(db, cfg.Conversations,
		platformService, assignmentService, notificationService)

	chatHandler := handlers.NewChatWebSocketHandler(conversationService, redisClient)
	assignmentService.SetNotifier(chatHandler)

	s := &Server{
		Echo:                 e,
		DB:                   db,
		Config:               &cfg,
		PlatformHandler:      handlers.NewPlatformHandler(platformService, loanService),
		LoanHandler:          handlers.NewLoanHandler(loanService, platformService),
		ConversationHandler:  handlers.NewConversationHandler(conversationService),
		LawyerHandler:        handlers.NewLawyerHandler(authService, lawyerService, assignmentService, conversationService, notificationService),
		ChatWebSocketHandler: chatHandler,
	}

	apiKeyMiddleware := custommiddleware.APIKeyMiddleware(platformService)
	lawyerMiddleware := custommiddleware.LawyerAuthMiddleware(authService)
	rateLimiter := limiter.NewManager(redisClient.Client, &limiter.FixedWindowStrategy{})
	s.SetupRoutes(apiKeyMiddleware, lawyerMiddleware, rateLimiter)

	if producer != nil {
		s.startNotificationConsumer(&cfg.Kafka, notificationService)
	}

	return s
}

// startNotificationConsumer flags notification rows as sent once their event
// made it through the broker.
func (s *Server) startNotificationConsumer(cfg *config.KafkaConfig, notificationService *services.NotificationService) {
	saramaConfig, err := kafka.NewSaramaConfig(cfg)
	if err != nil {
		log.Fatal("Failed to build kafka consumer config:", err)
	}
	consumer, err := kafka.NewConsumer(cfg.Brokers, "avocadolegal-core",
		[]string{cfg.NotificationTopic}, saramaConfig, notificationService)
	if err != nil {
		log.Fatal("Failed to create kafka consumer:", err)
	}
	s.consumer = consumer

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Errorf("Notification consumer stopped: %v", err)
		}
	}()
}

func (s *Server) Start(addr string) {
	log.Fatal(s.Echo.Start(addr))
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.consumer != nil {
		s.consumer.Close()
	}
	return s.Echo.Shutdown(ctx)
}
