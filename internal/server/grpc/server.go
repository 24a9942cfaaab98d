// Package grpc serves the standard gRPC health service for the auth
// backend. Status follows a periodic database probe.
package grpc

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// DefaultProbeInterval is how often the database is pinged.
const DefaultProbeInterval = 15 * time.Second

// PingFunc reports whether the backing store is reachable.
type PingFunc func(ctx context.Context) error

type HealthServer struct {
	address  string
	ping     PingFunc
	interval time.Duration
	logger   logging.Logger
	health   *health.Server

	mu      sync.Mutex
	serving bool
}

func NewHealthServer(a string, ping PingFunc, l logging.Logger) *HealthServer {
	return &HealthServer{
		address:  a,
		ping:     ping,
		interval: DefaultProbeInterval,
		logger:   l.With("module", "grpc_server"),
		health:   health.NewServer(),
	}
}

// WithProbeInterval overrides DefaultProbeInterval.
func (s *HealthServer) WithProbeInterval(d time.Duration) *HealthServer {
	s.interval = d
	return s
}

// probe pings the database once and publishes the result.
func (s *HealthServer) probe(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	err := s.ping(ctx)
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.mu.Lock()
	changed := s.serving != (err == nil)
	s.serving = err == nil
	s.mu.Unlock()

	if changed {
		if err != nil {
			s.logger.Warn(ctx, "database unreachable", "error", err)
		} else {
			s.logger.Info(ctx, "database reachable")
		}
	}

	s.health.SetServingStatus("", status)
}

func (s *HealthServer) probeLoop(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, s.interval)
			s.probe(pctx)
			cancel()
		}
	}
}

func (s *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *HealthServer) Serve(ctx context.Context, listen net.Listener) error {

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.probe(ctx)
	go s.probeLoop(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
