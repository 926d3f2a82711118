// Package server implements a minimal http/1.1 server for the job list. Each accepted
// connection serves exactly one request and is closed afterwards.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/syncs"

	"github.com/umputun/jobsearch/app/store"
)

// Store defines job storage operations used by the server
type Store interface {
	Add(ctx context.Context, title, description string, date store.Date) (store.Job, error)
	List(ctx context.Context) ([]store.Job, error)
	Remove(ctx context.Context, id int64) (bool, error)
}

// Config holds server configuration
type Config struct {
	Address      string        // listen address, i.e. 127.0.0.1:8080
	ReadTimeout  time.Duration // max time to read a request, 0 disables
	WriteTimeout time.Duration // max time to write a response, 0 disables
	MaxConns     int           // connections served concurrently, others wait
}

// Server accepts connections and answers one request per connection
type Server struct {
	store      Store
	cfg        Config
	templates  *template.Template
	routeTable []route
}

// New creates a server for the given store
func New(st Store, cfg Config) (*Server, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 16
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("server initialization failed: %w", err)
	}

	s := &Server{store: st, cfg: cfg, templates: tmpl}
	s.routeTable = s.routes()
	return s, nil
}

// Run listens on configured address and serves until ctx is canceled
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln one at a time and handles each on a worker.
// It returns after ctx is canceled and all accepted connections are done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("[WARN] failed to close listener: %v", err)
		}
	}()

	log.Printf("[INFO] listening on http://%s", ln.Addr())
	wg := syncs.NewSizedGroup(s.cfg.MaxConns)
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				log.Printf("[INFO] server stopped")
				return nil
			}
			log.Printf("[WARN] failed to accept connection: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(50 * time.Millisecond):
			}
			continue
		}
		wg.Go(func(ctx context.Context) {
			s.serveConn(ctx, conn)
		})
	}
}

// serveConn runs a single connection cycle: parse, dispatch, respond, close
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	c := newConnection(conn)
	defer c.close()

	if s.cfg.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			log.Printf("[WARN] failed to set read deadline for %s: %v", c.remote(), err)
			return
		}
	}

	req, err := c.readRequest()
	if err != nil {
		var perr *protocolError
		if !errors.As(err, &perr) {
			log.Printf("[DEBUG] connection %s dropped, %v", c.remote(), err)
			return
		}
		log.Printf("[WARN] bad request from %s: %v", c.remote(), perr)
		if err := c.writeResponse(textResponse(perr.status, perr.msg), s.cfg.WriteTimeout); err != nil {
			log.Printf("[DEBUG] %v", err)
		}
		return
	}

	c.setState(stateDispatching)
	resp := s.dispatch(ctx, req)
	if err := c.writeResponse(resp, s.cfg.WriteTimeout); err != nil {
		log.Printf("[WARN] %s %s from %s: %v", req.method, req.target, c.remote(), err)
		return
	}
	log.Printf("[DEBUG] %s %s from %s - %d, %d bytes", req.method, req.target, c.remote(), resp.status, len(resp.body))
}
