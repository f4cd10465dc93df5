package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/layermap/backend/internal/api"
	"github.com/layermap/backend/internal/catalog"
	"github.com/layermap/backend/internal/config"
	"github.com/layermap/backend/internal/engine/inmem"
	"github.com/layermap/backend/internal/geocode"
	"github.com/layermap/backend/internal/loader"
	"github.com/layermap/backend/internal/logging"
	"github.com/layermap/backend/internal/mapkit"
	"github.com/layermap/backend/internal/models"
	"github.com/layermap/backend/internal/pipeline"
	"github.com/layermap/backend/internal/routing"
	"github.com/layermap/backend/internal/storage"
	"github.com/layermap/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	configPath, err := resolveConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve config path: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Advanced.LogLevel)

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Fatal("creating directories", "err", err)
	}

	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		logger.Fatal("initializing storage", "err", err)
	}

	fetcher, err := loader.NewHTTPFetcher(&http.Client{Timeout: cfg.LoadTimeout()}, cfg.Services.FetchBaseURL)
	if err != nil {
		logger.Fatal("initializing fetcher", "err", err)
	}

	// The map model lives on one loop. Everything that touches it, including
	// the HTTP handlers, posts work to this loop.
	loop := pipeline.NewLoop()
	m := inmem.NewMap()
	var handlers *api.Handlers
	var root *mapkit.Root
	broadcast := func() {
		if handlers != nil {
			handlers.Hub.Broadcast(root.Snapshot())
		}
	}

	var maxBounds *models.Bounds
	if cfg.Map.MaxBounds != nil {
		b := cfg.Map.MaxBounds.Bounds()
		maxBounds = &b
	}
	root, err = mapkit.NewRoot(loop, mapkit.Options{
		TargetID:    cfg.Map.TargetID,
		PanelID:     cfg.Map.PanelID,
		View:        cfg.View(),
		Tiles:       []models.TileLayer{cfg.TileLayer()},
		MaxBounds:   maxBounds,
		Map:         m,
		DOM:         inmem.NewDocument(cfg.Map.TargetID, cfg.Map.PanelID),
		Fetcher:     fetcher,
		LoadTimeout: cfg.LoadTimeout(),
		OnLoadError: func(*mapkit.LoadError) { broadcast() },
		OnRendered:  func(*mapkit.Layer) { broadcast() },
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("creating map root", "err", err)
	}

	builder := catalog.NewBuilder(root, fileStore)
	loadCatalog(logger, cfg.Map.LayersFile, builder)
	if err := root.Start(); err != nil {
		logger.Fatal("starting map root", "err", err)
	}

	deps := &api.Dependencies{
		Root:        root,
		Builder:     builder,
		Store:       fileStore,
		Version:     Version,
		CallTimeout: 5 * time.Second,
	}
	if cfg.Services.MapTilerKey != "" {
		mt := &geocode.MapTiler{Key: cfg.Services.MapTilerKey}
		if cfg.Services.SearchBounds != nil {
			b := cfg.Services.SearchBounds.Bounds()
			mt.Bounds = &b
		}
		deps.Search = geocode.NewSearch(mt, m)
	} else {
		logger.Info("geocoding disabled, no MapTiler key")
	}
	if cfg.Services.MapQuestKey != "" {
		deps.Directions = routing.NewDirections(&routing.MapQuest{Key: cfg.Services.MapQuestKey}, m, loop, logger)
	} else {
		logger.Info("directions disabled, no MapQuest key")
	}
	handlers = api.NewHandlers(deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("map loop stopped", "err", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e, api.MiddlewareOptions{
		RequestLogging: cfg.Advanced.EnableRequestLogging,
		EnableCORS:     cfg.Server.EnableCORS,
		AllowOrigins:   cfg.Server.AllowOrigins,
		BodyLimit:      cfg.Server.BodyLimit,
	})
	api.RegisterRoutes(e, handlers)

	if web.HasEmbeddedFiles() {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn("registering static routes", "err", err)
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           LayerMap Server                                 ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Config:     %-45s║\n", configPath)
	fmt.Printf("║  Listen:     http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}

// resolveConfigPath prefers LAYERMAP_CONFIG, then layermap.config next to
// the executable.
func resolveConfigPath() (string, error) {
	if p := os.Getenv("LAYERMAP_CONFIG"); p != "" {
		return p, nil
	}
	exePath, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(exePath), "layermap.config"), nil
}

// loadCatalog builds the startup layers. A missing file is not an error;
// a broken entry is logged and skipped.
func loadCatalog(logger *log.Logger, path string, builder *catalog.Builder) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Info("no layer catalog", "path", path)
		return
	}

	cat, err := config.ParseLayerCatalog(path)
	if err != nil {
		logger.Error("parsing layer catalog", "path", path, "err", err)
		return
	}
	layers, err := builder.BuildAll(cat)
	if err != nil {
		logger.Warn("some catalog layers were skipped", "err", err)
	}
	logger.Info("layer catalog loaded", "path", path, "layers", len(layers))
}
