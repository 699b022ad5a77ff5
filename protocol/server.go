// SPDX-License-Identifier: MIT
package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"

	"gitlab.com/fisherprime/gcgp/types"
)

type (
	// ServerConfig defines configuration options for the [Server].
	ServerConfig struct {
		// Logger for [Server] messages.
		Logger logrus.FieldLogger

		// Workers bounds the number of concurrently served connections.
		Workers int

		// Driver is copied for every connection's [Driver].
		Driver *Config

		// NewHost supplies the [Host] of a new connection.
		NewHost func() Host
	}

	// Server serves every connection with its own [Driver] from a bounded goroutine pool.
	Server struct {
		cfg  *ServerConfig
		pool *ants.Pool

		active types.SafeCounter
	}
)

// Server errors.
var (
	ErrServerBusy   = errors.New("connection limit reached")
	ErrServerConfig = errors.New("invalid server configuration")
	ErrNoListener   = errors.New("no listen address")
)

const (
	// DefaultWorkers is the default connection limit.
	DefaultWorkers = 8

	shutdownTimeout = 5 * time.Second
)

// DefServerConfig obtains the package's default [Server] options.
func DefServerConfig() *ServerConfig {
	return &ServerConfig{
		Logger:  fLogger,
		Workers: DefaultWorkers,
		Driver:  DefConfig(),
		NewHost: func() Host { return Host{} },
	}
}

// Validate populates missing ServerConfig entries with defaults.
func (c *ServerConfig) Validate() {
	if c.Logger == nil {
		c.Logger = fLogger
	}
	if c.Workers < 1 {
		c.Workers = DefaultWorkers
	}
	if c.Driver == nil {
		c.Driver = DefConfig()
	}
	c.Driver.Validate()
	if c.NewHost == nil {
		c.NewHost = func() Host { return Host{} }
	}
}

// NewServer instantiates a [Server]; release it with [Server.Close].
func NewServer(cfg *ServerConfig) (s *Server, err error) {
	if cfg == nil {
		cfg = DefServerConfig()
	}
	cfg.Validate()

	logger := cfg.Logger
	pool, err := ants.NewPool(cfg.Workers,
		ants.WithNonblocking(true),
		ants.WithLogger(logger),
		ants.WithPanicHandler(func(p interface{}) {
			logger.Errorf("connection handler panic: %v", p)
		}),
	)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrServerConfig, err)
		return
	}

	s = &Server{cfg: cfg, pool: pool}

	return
}

// Active is the number of connections being served.
func (s *Server) Active() int { return s.active.Value() }

// Close releases the pool.
func (s *Server) Close() { s.pool.Release() }

// ServeConn serves conn from the pool, closing it once done.
//
// Fails with ErrServerBusy when every worker is occupied.
func (s *Server) ServeConn(ctx context.Context, conn io.ReadWriteCloser) error {
	return s.submit(ctx, conn, nil)
}

func (s *Server) submit(ctx context.Context, conn io.ReadWriteCloser, done func()) (err error) {
	task := func() {
		s.active.Inc()
		defer func() {
			s.active.Dec()
			conn.Close()
			if done != nil {
				done()
			}
		}()

		// Driver Configs are validated on use, each connection gets a copy.
		cfg := *s.cfg.Driver
		if sErr := Serve(ctx, conn, s.cfg.NewHost(), WithConfig(&cfg)); sErr != nil && !errors.Is(sErr, context.Canceled) {
			s.cfg.Logger.Warnf("connection: %v", sErr)
		}
	}

	if err = s.pool.Submit(task); err != nil {
		conn.Close()
		if errors.Is(err, ants.ErrPoolOverload) {
			err = ErrServerBusy
		}
		s.cfg.Logger.Warnf("rejected connection: %v", err)
	}

	return
}

// Serve accepts connections on l until ctx ends or l fails.
func (s *Server) Serve(ctx context.Context, l net.Listener) (err error) {
	go func() {
		<-ctx.Done()
		l.Close()
	}()

	s.cfg.Logger.Infof("listening on %s", l.Addr())
	for {
		conn, aErr := l.Accept()
		if aErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.cfg.Logger.Errorf("accept: %v", aErr)

			return aErr
		}

		if s.cfg.Driver.Debug {
			s.cfg.Logger.Debugf("connection from %s", conn.RemoteAddr())
		}
		_ = s.ServeConn(ctx, conn)
	}
}

// WebsocketHandler serves websocket connections like stream connections.
func (s *Server) WebsocketHandler(ctx context.Context) websocket.Handler {
	return func(ws *websocket.Conn) {
		// The websocket is closed once the handler returns.
		done := make(chan struct{})
		if err := s.submit(ctx, ws, func() { close(done) }); err != nil {
			return
		}
		<-done
	}
}

// ServeWebsocket serves websocket connections over HTTP on addr until ctx ends.
func (s *Server) ServeWebsocket(ctx context.Context, addr string) (err error) {
	mux := http.NewServeMux()
	mux.Handle("/", s.WebsocketHandler(ctx))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: shutdownTimeout}
	go func() {
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(sCtx)
	}()

	s.cfg.Logger.Infof("serving websockets on %s", addr)
	if err = srv.ListenAndServe(); errors.Is(err, http.ErrServerClosed) {
		err = ctx.Err()
	}

	return
}

// ListenAndServe serves TCP connections on tcpAddr & websocket connections on wsAddr; an empty
// address disables its listener.
//
// Returns once every listener has stopped, joining their errors.
func (s *Server) ListenAndServe(ctx context.Context, tcpAddr, wsAddr string) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var listeners []func() error
	if tcpAddr != "" {
		l, lErr := net.Listen("tcp", tcpAddr)
		if lErr != nil {
			return fmt.Errorf("listen (%s): %w", tcpAddr, lErr)
		}
		listeners = append(listeners, func() error { return s.Serve(ctx, l) })
	}
	if wsAddr != "" {
		listeners = append(listeners, func() error { return s.ServeWebsocket(ctx, wsAddr) })
	}
	if len(listeners) == 0 {
		return ErrNoListener
	}

	done, errChan := make(chan bool, len(listeners)), make(chan error, len(listeners))
	for _, listen := range listeners {
		go func(listen func() error) {
			// A stopped listener stops its peers.
			defer cancel()

			// Listeners stopped by cancellation report as done.
			if lErr := listen(); lErr != nil && ctx.Err() == nil {
				errChan <- lErr
				return
			}
			done <- true
		}(listen)
	}

	return types.MonitorChannels(context.Background(), len(listeners), done, errChan, "listener")
}
