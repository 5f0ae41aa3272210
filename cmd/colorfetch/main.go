package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/ironsheep/colorfetch/internal/cache"
	"github.com/ironsheep/colorfetch/internal/config"
	"github.com/ironsheep/colorfetch/internal/extract"
	"github.com/ironsheep/colorfetch/internal/imaging"
	"github.com/ironsheep/colorfetch/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	mode := "http"
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("colorfetch %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "mcp":
			mode = "mcp"
		default:
			fmt.Fprintf(os.Stderr, "unknown argument %q (see --help)\n", os.Args[1])
			os.Exit(2)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Log to stderr; stdout carries the MCP protocol in mcp mode.
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      cfg.LogLevel,
		TimeFormat: time.DateTime,
	}))
	slog.SetDefault(logger)

	logger.Debug("starting colorfetch", "version", Version, "built", BuildTime, "commit", GitCommit, "mode", mode)

	source := imaging.NewHTTPSource(&http.Client{Timeout: cfg.FetchTimeout}, cfg.MaxImageBytes)
	results := cache.New(source, map[extract.Strategy]extract.Extractor{
		extract.MedianCut:    extract.NewMedianCutExtractor(),
		extract.NamedPalette: extract.NewNamedPaletteExtractor(nil),
	}, cache.WithCapacity(cfg.CacheSize), cache.WithLogger(logger))

	srv := server.New(results, logger, Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if mode == "mcp" {
		err = srv.Run(ctx)
	} else {
		err = srv.ListenAndServe(ctx, cfg.Addr)
	}
	if err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("colorfetch - primary/secondary color extraction for image URLs")
	fmt.Println()
	fmt.Println("Usage: colorfetch [mcp | options]")
	fmt.Println()
	fmt.Println("With no arguments an HTTP server is started:")
	fmt.Println("  GET /color?url=<image>&strategy=median_cut|named_palette&normalize=<0..1>")
	fmt.Println("  GET /stats")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  mcp              Serve MCP over stdin/stdout instead")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from ./.env):")
	fmt.Printf("  %-28s HTTP listen address (default %s)\n", config.EnvAddr, config.DefaultAddr)
	fmt.Printf("  %-28s Maximum cached results (default %d)\n", config.EnvCacheSize, cache.DefaultCapacity)
	fmt.Printf("  %-28s Image download timeout (default %s)\n", config.EnvFetchTimeout, imaging.DefaultFetchTimeout)
	fmt.Printf("  %-28s Largest accepted image (default %d)\n", config.EnvMaxImageBytes, imaging.DefaultMaxImageBytes)
	fmt.Printf("  %-28s debug, info, warn or error (default info)\n", config.EnvLogLevel)
}
