package mux

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/soheilhy/cmux"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/grpc/server"
	"ats-aggregator/internal/logging"
)

// Multiplexer serves gRPC and HTTP/1 on one listener
type Multiplexer struct {
	cfg    *config.Config
	logger logging.Logger

	// Servers
	grpcServer *server.Server
	httpServer *http.Server

	// Multiplexer
	mux      cmux.CMux
	listener net.Listener

	wg sync.WaitGroup
}

// NewMultiplexer creates a protocol multiplexer. grpcServer may be nil, in
// which case every connection goes to HTTP.
func NewMultiplexer(cfg *config.Config, grpcServer *server.Server, httpHandler http.Handler, logger logging.Logger) *Multiplexer {
	return &Multiplexer{
		cfg:        cfg,
		logger:     logger.WithField("component", "mux"),
		grpcServer: grpcServer,
		httpServer: &http.Server{
			Handler:           httpHandler,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       cfg.Server.IdleTimeout,
		},
	}
}

// ListenWithFallback listens on port, trying the next fallbacks ports in
// turn while the address is in use.
func ListenWithFallback(host string, port, fallbacks int, logger logging.Logger) (net.Listener, error) {
	var lastErr error
	for i := 0; i <= fallbacks; i++ {
		address := net.JoinHostPort(host, strconv.Itoa(port+i))
		listener, err := net.Listen("tcp", address)
		if err == nil {
			return listener, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, errors.Wrapf(err, "listen on %s", address)
		}
		logger.Warn("port in use, trying next", map[string]interface{}{"address": address})
		lastErr = err
	}
	return nil, errors.Wrapf(lastErr, "ports %d-%d all in use", port, port+fallbacks)
}

// Serve starts both servers on listener and returns immediately
func (m *Multiplexer) Serve(listener net.Listener) {
	m.listener = listener
	m.mux = cmux.New(listener)
	address := listener.Addr().String()

	if m.grpcServer != nil {
		grpcListener := m.mux.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := m.grpcServer.Start(grpcListener); err != nil && !errors.Is(err, cmux.ErrListenerClosed) {
				m.logger.Error("gRPC server failed", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	httpListener := m.mux.Match(cmux.Any())
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.logger.Info("starting HTTP server", map[string]interface{}{"address": address})
		if err := m.httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, cmux.ErrListenerClosed) {
			m.logger.Error("HTTP server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.mux.Serve(); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, cmux.ErrServerClosed) {
			m.logger.Error("multiplexer failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	m.logger.Info("multiplexer started", map[string]interface{}{"address": address, "grpc": m.grpcServer != nil})
}

// Stop gracefully shuts down both servers, waiting at most until ctx ends
func (m *Multiplexer) Stop(ctx context.Context) error {
	m.logger.Info("stopping multiplexer")

	var errs error
	if err := m.httpServer.Shutdown(ctx); err != nil {
		errs = errors.CombineErrors(errs, errors.Wrap(err, "shutdown HTTP server"))
	}

	if m.grpcServer != nil {
		stopped := make(chan struct{})
		go func() {
			m.grpcServer.Stop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			errs = errors.CombineErrors(errs, errors.Wrap(ctx.Err(), "stop gRPC server"))
		}
	}

	if m.mux != nil {
		m.mux.Close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("multiplexer stopped gracefully")
	case <-ctx.Done():
		m.logger.Warn("multiplexer shutdown timed out")
	}
	return errs
}

// GetAddress returns the address the multiplexer is listening on
func (m *Multiplexer) GetAddress() string {
	if m.listener != nil {
		return m.listener.Addr().String()
	}
	return ""
}
