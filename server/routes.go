package server

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/carlospion/AvocadoLegal/limiter"
	custommiddleware "github.com/carlospion/AvocadoLegal/middleware"
)

func (s *Server) SetupRoutes(apiKeyMiddleware echo.MiddlewareFunc,
	lawyerMiddleware echo.MiddlewareFunc, rateLimiter *limiter.Manager) {
	e := s.Echo
	api := e.Group("/api/v1")

	// Public tenant onboarding
	api.POST("/platforms/register", s.PlatformHandler.Register)

	// Lawyer authentication (unprotected)
	api.POST("/lawyers/login", s.LawyerHandler.Login)
	api.POST("/lawyers/refresh", s.LawyerHandler.RefreshToken)

	// Tenant platform API (Api-Key auth, throttled per key)
	platform := api.Group("")
	platform.Use(apiKeyMiddleware)
	platform.Use(custommiddleware.NewRateLimitMiddleware(rateLimiter, custommiddleware.RateLimitConfig{
		Limit:  120,
		Window: time.Minute,
		KeyFunc: func(c echo.Context) string {
			if p := custommiddleware.PlatformFrom(c); p != nil {
				return p.ID.String()
			}
			return ""
		},
	}))
	{
		platform.POST("/platforms/regenerate-key", s.PlatformHandler.RegenerateAPIKey)
		platform.GET("/platform-users", s.PlatformHandler.ListUsers)
		platform.POST("/platform-users", s.PlatformHandler.CreateUser)

		platform.GET("/clients", s.PlatformHandler.ListClients)
		platform.POST("/clients", s.PlatformHandler.CreateClient)
		platform.GET("/clients/:id", s.PlatformHandler.GetClient)
		platform.GET("/clients/:id/loans", s.PlatformHandler.GetClientLoans)

		platform.GET("/loans", s.LoanHandler.List)
		platform.POST("/loans", s.LoanHandler.Create)
		platform.GET("/loans/irregular", s.LoanHandler.Irregular)
		platform.GET("/loans/:id", s.LoanHandler.Get)
		platform.POST("/loans/:id/analyze", s.LoanHandler.Analyze)

		platform.GET("/conversations", s.ConversationHandler.List)
		platform.POST("/conversations", s.ConversationHandler.Create)
		platform.GET("/conversations/:id", s.ConversationHandler.Get)
		platform.GET("/conversations/:id/messages", s.ConversationHandler.Messages)
		platform.POST("/conversations/:id/messages", s.ConversationHandler.SendMessage)
		platform.POST("/conversations/:id/messages/:messageId/read", s.ConversationHandler.MarkMessageRead)

		platform.GET("/chat/:conversationId/online-users", s.ChatWebSocketHandler.GetOnlineUsers)
		// Platform-side chat socket
		platform.GET("/ws/chat/:conversationId", s.ChatWebSocketHandler.HandleChatWS)
	}

	// Lawyer dashboard (JWT auth)
	lawyers := api.Group("/lawyers")
	lawyers.Use(lawyerMiddleware)
	{
		lawyers.GET("/dashboard", s.LawyerHandler.Dashboard)
		lawyers.GET("/conversations", s.LawyerHandler.Caseload)
		lawyers.GET("/conversations/:id", s.LawyerHandler.ConversationDetail)
		lawyers.POST("/conversations/:id/messages", s.LawyerHandler.SendMessage)
		lawyers.POST("/conversations/:id/close", s.LawyerHandler.Close)
		lawyers.GET("/queue", s.LawyerHandler.Queue)
		lawyers.POST("/queue/:id/claim", s.LawyerHandler.Claim)
		lawyers.POST("/availability", s.LawyerHandler.ToggleAvailability)
		lawyers.POST("/shift", s.LawyerHandler.ToggleShift)
		lawyers.GET("/notifications", s.LawyerHandler.Notifications)
		lawyers.POST("/notifications/:id/read", s.LawyerHandler.MarkNotificationRead)

		// Lawyer-side sockets
		lawyers.GET("/ws/chat/:conversationId", s.ChatWebSocketHandler.HandleChatWS)
		lawyers.GET("/ws/queue", s.ChatWebSocketHandler.HandleQueueWS)
	}
}
