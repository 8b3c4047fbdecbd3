package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hellofresh/health-go/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/ctfer-io/scenario-editor/global"
	"github.com/ctfer-io/scenario-editor/pkg/repository"
	"github.com/ctfer-io/scenario-editor/pkg/scenario"
)

// Recorder keeps track of every edit.
type Recorder interface {
	Record(ctx context.Context, id int, before, after scenario.Sections) error
}

// Server is a helper to manage the editor HTTP server.
type Server struct {
	Options

	srv *http.Server
}

// Options to configure it once for all.
type Options struct {
	Port int

	Repository *repository.Repository
	Audit      Recorder

	// StripLabel is removed from the head of section texts when displayed.
	StripLabel string

	// Checks are registered on the healthcheck, in addition to the default ones.
	Checks []health.Config
}

// NewServer returns a fresh editor server.
func NewServer(opts Options) *Server {
	return &Server{
		Options: opts,
	}
}

// Run the server in backend. It returns once listening.
func (s *Server) Run(ctx context.Context) error {
	global.Log().Info(ctx, "editor start listening",
		zap.Int("port", s.Port),
	)
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.Port))
	if err != nil {
		return err
	}

	h, err := s.Handler(ctx)
	if err != nil {
		_ = ln.Close()
		return err
	}
	s.srv = &http.Server{
		Handler:           h,
		ReadHeaderTimeout: time.Second,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			global.Log().Error(ctx, "http server", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight edits.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Handler builds the routes of the editor.
func (s *Server) Handler(ctx context.Context) (http.Handler, error) {
	hc, err := s.healthcheck(ctx)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.home)
	mux.HandleFunc("POST /{$}", s.homeSubmit)
	mux.HandleFunc("GET /edit_scenario/{scenario_id}", s.editView)
	mux.HandleFunc("POST /edit_scenario/{scenario_id}", s.editSubmit)
	mux.Handle("GET /healthcheck", hc)

	return otelhttp.NewHandler(withRequestID(mux), "scenario-editor",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			if r.Pattern != "" {
				return r.Pattern
			}
			return r.Method + " " + r.URL.Path
		}),
	), nil
}
