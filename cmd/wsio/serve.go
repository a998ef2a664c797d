package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/wsio/internal/config"
	"github.com/vango-dev/wsio/internal/errors"
	"github.com/vango-dev/wsio/pkg/wsio"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(opts *globalOptions) *cobra.Command {
	var (
		addr   string
		public string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo server",
		Long: `Run the demo server.

The server answers requestStringMessage with a stringMessage rectangle
and requestBinaryMessage with a binaryMessage whose bytes are tripled.
Static files are served from the public directory on the same port.

Examples:
  wsio serve
  wsio serve --addr=0.0.0.0:8000 --public=./example/public`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("public") {
				cfg.Server.Public = public
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, slog.Default())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config, :8000)")
	cmd.Flags().StringVarP(&public, "public", "p", "", "Static file directory (empty disables)")

	return cmd
}

// app is the demo server wiring: the wsio server and its HTTP router.
type app struct {
	wsio    *wsio.Server
	handler http.Handler
}

func newApp(cfg *config.Config, logger *slog.Logger) *app {
	sc := cfg.ServerConfig()
	sc.Logger = logger.With("component", "wsio-server")
	sc.Socket.WithLogger(logger.With("component", "wsio"))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if !cfg.Metrics.Disabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		sc.Socket.WithMetrics(wsio.NewMetrics(
			wsio.WithRegistry(registry),
			wsio.WithNamespace(cfg.Metrics.Namespace),
		))
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	srv := wsio.NewServer(sc)
	srv.OnConnection(func(s *wsio.Socket) {
		logger.Info("client connect", "id", s.ID())
		registerDemoServer(s)
	})

	var static http.Handler = http.NotFoundHandler()
	if cfg.Server.Public != "" {
		if info, err := os.Stat(cfg.Server.Public); err == nil && info.IsDir() {
			static = http.FileServer(http.Dir(cfg.Server.Public))
		} else {
			logger.Warn("static directory not found, serving WebSocket only", "public", cfg.Server.Public)
		}
	}

	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		if websocket.IsWebSocketUpgrade(req) {
			srv.ServeHTTP(w, req)
			return
		}
		static.ServeHTTP(w, req)
	})

	return &app{wsio: srv, handler: r}
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a := newApp(cfg, logger)

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return errors.New("W201").WithDetailf("Cannot listen on %s", cfg.Server.Addr).Wrap(err)
	}
	httpServer := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("now listening", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(ln); !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New("W201").Wrap(err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "clients", a.wsio.Len())

		// Hijacked WebSocket connections are not tracked by http.Server.
		a.wsio.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
