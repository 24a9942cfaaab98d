// Package http exposes the account flows as a JSON API with a session
// cookie, plus a readiness probe.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

// Accounts is the part of services.AccountService the API calls.
type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Logout(ctx context.Context) services.Acknowledgement
	Me(ctx context.Context, token string) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) (services.Acknowledgement, error)
	ResetPassword(ctx context.Context, token, newPassword string) (services.Acknowledgement, error)
	VerifyEmail(ctx context.Context, token string) (services.Acknowledgement, error)
	ChangePassword(ctx context.Context, token, currentPassword, newPassword string) (services.Acknowledgement, error)
}

// PingFunc reports whether the backing store is reachable.
type PingFunc func(ctx context.Context) error

const shutdownTimeout = 10 * time.Second

type Server struct {
	address     string
	accounts    Accounts
	ping        PingFunc
	cookie      sessionCookie
	corsOrigins []string
	logger      logging.Logger
}

// NewServer builds the API server from cfg.
func NewServer(cfg *config.Config, accounts Accounts, ping PingFunc, l logging.Logger) (*Server, error) {
	sameSite, ok := config.ParseSameSite(cfg.CookieSameSite)
	if !ok {
		return nil, fmt.Errorf("unsupported cookie same-site policy %q", cfg.CookieSameSite)
	}

	return &Server{
		address:  cfg.EndpointAddrHTTP,
		accounts: accounts,
		ping:     ping,
		cookie: sessionCookie{
			name:     cfg.CookieName,
			secure:   cfg.CookieSecure,
			sameSite: toHTTPSameSite(sameSite),
			domain:   cfg.CookieDomain,
		},
		corsOrigins: cfg.CORSOrigins,
		logger:      l.With("module", "http_server"),
	}, nil
}

// Handler returns the routed API wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", s.register)
	mux.HandleFunc("POST /auth/login", s.login)
	mux.HandleFunc("POST /auth/logout", s.logout)
	mux.HandleFunc("GET /auth/me", s.me)
	mux.HandleFunc("POST /auth/forgot-password", s.forgotPassword)
	mux.HandleFunc("POST /auth/reset-password", s.resetPassword)
	mux.HandleFunc("GET /auth/verify-email", s.verifyEmail)
	mux.HandleFunc("POST /auth/change-password", s.changePassword)

	mux.HandleFunc("GET /healthz", s.healthz)

	var h http.Handler = mux
	h = CORS(s.corsOrigins)(h)
	h = Recoverer(s.logger)(h)
	h = RequestLogger(s.logger)(h)
	h = RequestID(h)
	return h
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server started", "address", listen.Addr().String())
		errCh <- srv.Serve(listen)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info(ctx, "Shutting down HTTP server")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return err
		}
		return nil
	}
}
