package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gymgate/internal/attendance"
	"gymgate/internal/auth"
	"gymgate/internal/checkin"
	"gymgate/internal/config"
	"gymgate/internal/membership"
	"gymgate/internal/roster"

	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers mounted by the server.
type Handlers struct {
	CheckIns   *checkin.Handler
	Codes      *attendance.Handler
	Membership *membership.Handler
	Sessions   *roster.Handler
}

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *config.Config
	limiter    *RateLimiter
	codes      *RateLimiter
}

func New(cfg *config.Config, h Handlers) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())

	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)
	router.Use(RateLimitMiddleware(limiter, ByClientIP))

	codeLimiter := NewRateLimiter(cfg.CodeRateLimitRPS, int(cfg.CodeRateLimitRPS*5)+1, 10*time.Minute)

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.POST("/checkins", CodeAttemptLimit(codeLimiter, ByBranch), h.CheckIns.Admit)
		protected.GET("/checkins", h.CheckIns.ListHistory)
		protected.GET("/checkins/last", h.CheckIns.LastCheckIn)
		protected.POST("/codes", h.Codes.IssueCode)
		protected.GET("/accounts/me/eligibility", h.Membership.GetEligibility)

		protected.GET("/sessions/:sessionID", h.Sessions.GetSession)
		protected.POST("/sessions/:sessionID/book", h.Sessions.Book)
		protected.POST("/sessions/:sessionID/cancel", h.Sessions.Cancel)
		protected.POST("/sessions/:sessionID/waitlist", h.Sessions.JoinWaitlist)
		protected.DELETE("/sessions/:sessionID/waitlist", h.Sessions.LeaveWaitlist)
		protected.GET("/sessions/:sessionID/waitlist/head", h.Sessions.PeekWaitlistHead)
	}

	adminMiddleware := auth.RequireRole(auth.RoleAdmin)
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.PUT("/accounts/:accountID", h.Membership.UpsertAccount)
		admin.POST("/sessions", h.Sessions.CreateSession)
		admin.PUT("/sessions/:sessionID/capacity", h.Sessions.SetCapacity)
		admin.POST("/sessions/:sessionID/promote", h.Sessions.Promote)
		admin.GET("/sessions/:sessionID/bookings", h.Sessions.ListBookings)
		admin.GET("/sessions/:sessionID/waitlist", h.Sessions.ListWaitlist)
	}

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		config:  cfg,
		limiter: limiter,
		codes:   codeLimiter,
	}
}

// Router exposes the engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves on the configured port until Shutdown is called. It returns
// nil after a clean shutdown, including one that happened before Start.
func (s *Server) Start(ctx context.Context) error {
	go s.limiter.Cleanup(ctx)
	go s.codes.Cleanup(ctx)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
