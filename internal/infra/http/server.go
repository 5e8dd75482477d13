package http

import (
	"time"

	"tecpd/internal/domain"
	"tecpd/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	engine *gin.Engine

	create *usecase.CreateReceipt
	verify *usecase.VerifyReceipt
	crypto usecase.CryptoService

	log     domain.TransparencyLog
	journal domain.ReceiptJournal
	policy  domain.PolicyRegistry

	rateLimiter       domain.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration

	verifyDefaults usecase.VerifyOptions
}

type Options struct {
	Create *usecase.CreateReceipt
	Verify *usecase.VerifyReceipt
	Crypto usecase.CryptoService

	Log     domain.TransparencyLog
	Journal domain.ReceiptJournal
	Policy  domain.PolicyRegistry

	RateLimiter       domain.RateLimiter
	RateLimitRequests int
	RateLimitWindow   time.Duration

	VerifyDefaults usecase.VerifyOptions
}

func NewServer(opts Options) *Server {
	s := &Server{
		create:            opts.Create,
		verify:            opts.Verify,
		crypto:            opts.Crypto,
		log:               opts.Log,
		journal:           opts.Journal,
		policy:            opts.Policy,
		rateLimiter:       opts.RateLimiter,
		rateLimitRequests: opts.RateLimitRequests,
		rateLimitWindow:   opts.RateLimitWindow,
		verifyDefaults:    opts.VerifyDefaults,
	}

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	engine.GET("/healthz", s.handleHealth)
	v1 := engine.Group("/v1")
	v1.POST("/receipts", s.handleIssueReceipt)
	v1.POST("/receipts/verify", s.handleVerifyReceipt)
	v1.GET("/receipts/:nonce", s.handleGetReceipt)
	v1.GET("/log/sth", s.handleLogHead)

	s.engine = engine
	return s
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() *gin.Engine {
	return s.engine
}
