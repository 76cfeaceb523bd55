// Package http exposes the expense tracker services as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/auth"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/services"
)

// Service ports, satisfied by the types in internal/services.
type (
	UserAPI interface {
		Register(ctx context.Context, username, password string) (services.LoginResult, error)
		Login(ctx context.Context, username, password string) (services.LoginResult, error)
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	CategoryAPI interface {
		Create(ctx context.Context, userID uuid.UUID, in services.CategoryInput) (services.CategoryDetails, error)
		Get(ctx context.Context, userID uuid.UUID, id int64) (services.CategoryDetails, error)
		List(ctx context.Context, userID uuid.UUID) ([]services.CategoryDetails, error)
		Edit(ctx context.Context, userID uuid.UUID, id int64, name string) (services.CategoryDetails, error)
		Remove(ctx context.Context, userID uuid.UUID, id int64) error
		AddTransaction(ctx context.Context, userID uuid.UUID, categoryID, transactionID int64) (services.CategoryDetails, error)
		RemoveTransaction(ctx context.Context, userID uuid.UUID, categoryID, transactionID int64) (services.CategoryDetails, error)
	}

	TransactionAPI interface {
		Create(ctx context.Context, userID uuid.UUID, in services.TransactionInput) (core.Transaction, error)
		Get(ctx context.Context, userID uuid.UUID, id int64) (core.Transaction, error)
		List(ctx context.Context, userID uuid.UUID, typeFilter string) ([]core.Transaction, error)
		Edit(ctx context.Context, userID uuid.UUID, id int64, in services.TransactionEdit) (core.Transaction, error)
		Remove(ctx context.Context, userID uuid.UUID, id int64) error
	}

	BalanceAPI interface {
		GetCurrentBalance(ctx context.Context, userID uuid.UUID) (core.MonthBalance, error)
	}
)

// Deps are the collaborators of the API server.
type Deps struct {
	Users        UserAPI
	Categories   CategoryAPI
	Transactions TransactionAPI
	Balance      BalanceAPI
	Tokens       auth.Verifier
	Logger       *applog.Logger
	// Ready checks dependencies for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
	// RateLimitPerMinute caps API requests per client IP.
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	users        UserAPI
	categories   CategoryAPI
	transactions TransactionAPI
	balance      BalanceAPI
	ready        func(ctx context.Context) error

	rateLimiter     *ratelimit.Limiter
	traceMiddleware *trace.Middleware
	started         time.Time
	shutdownOnce    sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		users:        deps.Users,
		categories:   deps.Categories,
		transactions: deps.Transactions,
		balance:      deps.Balance,
		ready:        deps.Ready,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimitPerMinute,
		}),
		traceMiddleware: trace.NewMiddleware(deps.Logger, security.ClientIP),
		started:         time.Now(),
	}

	authenticated := auth.Middleware(deps.Tokens, writeError)
	adminOnly := auth.RequireScope(core.RoleAdmin, writeError)
	protect := func(h http.HandlerFunc) http.Handler { return authenticated(h) }

	api := http.NewServeMux()
	api.HandleFunc("POST /users", s.handleRegister)
	api.HandleFunc("POST /users/login", s.handleLogin)
	api.Handle("GET /users", authenticated(adminOnly(http.HandlerFunc(s.handleListUsers))))

	api.Handle("POST /categories", protect(s.handleCreateCategory))
	api.Handle("GET /categories", protect(s.handleListCategories))
	api.Handle("GET /categories/{id}", protect(s.handleGetCategory))
	api.Handle("PUT /categories/{id}", protect(s.handleEditCategory))
	api.Handle("DELETE /categories/{id}", protect(s.handleRemoveCategory))
	api.Handle("POST /categories/{id}/transactions/{tid}", protect(s.handleAddTransactionToCategory))
	api.Handle("DELETE /categories/{id}/transactions/{tid}", protect(s.handleRemoveTransactionFromCategory))

	api.Handle("POST /transactions", protect(s.handleCreateTransaction))
	api.Handle("GET /transactions", protect(s.handleListTransactions))
	api.Handle("GET /transactions/balance", protect(s.handleCurrentBalance))
	api.Handle("GET /transactions/{id}", protect(s.handleGetTransaction))
	api.Handle("PUT /transactions/{id}", protect(s.handleEditTransaction))
	api.Handle("DELETE /transactions/{id}", protect(s.handleRemoveTransaction))

	api.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: msgRouteNotFound, Errors: []string{}})
	})

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", s.handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	root.Handle("/", s.rateLimiter.Middleware(security.ClientIP, writeRateLimited)(api))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.traceMiddleware.Middleware(headers.Middleware(root)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

// Shutdown stops accepting requests and releases the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
