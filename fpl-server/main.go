package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/app"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/config"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/logger"
)

func main() {
	var (
		configPath  = flag.String("config", os.Getenv("FPL_CONFIG"), "YAML config file (optional)")
		requireAuth = flag.Bool("require-auth", true, "require API key auth (server.api_key / FPL_MCP_API_KEY)")
		warm        = flag.Bool("warm", true, "load the player catalog before accepting requests")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if !*requireAuth {
		cfg.Server.RequireAuth = false
	}
	if err := cfg.Server.ValidateServer(); err != nil {
		log.Fatal(err)
	}
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := app.New(cfg, app.Options{Watch: true})
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *warm {
		if err := a.Warm(ctx); err != nil {
			logger.Warnf("catalog warm-up failed, will retry on first request: %v", err)
		}
	}

	server, registry := newMCPServer(a)
	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})

	router, err := newRouter(routerDeps{
		server: cfg.Server,
		chat:   a.Chat,
		tools:  &registry,
		mcp:    handler,
	})
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("HTTP server listening on %s (chat /api/chat, MCP %s, %d tools)", cfg.Server.Addr, cfg.Server.MCPPath, len(registry))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
