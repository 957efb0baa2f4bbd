// Package main is the recallsearch CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/recallwatch/recallsearch/internal/config"
	"github.com/recallwatch/recallsearch/internal/ingest"
	"github.com/recallwatch/recallsearch/internal/models"
	"github.com/recallwatch/recallsearch/internal/search"
	"github.com/recallwatch/recallsearch/internal/server"
	"github.com/recallwatch/recallsearch/internal/storage"
	"github.com/recallwatch/recallsearch/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/recallsearch/config.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "load":
		runLoad()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("recallsearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: recallsearch <command> [flags]

Commands:
  server    Run the HTTP search API
  search    Run a one-shot query against the configured store
  load      Load a CSV/XLSX recall dataset into the store
  status    Show record count and store capability
  version   Print version`)
}

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory wins (for development).
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				return config.Load(fallback)
			}
		}
	}
	return config.Load(path)
}

// openStore opens the configured store backend.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.RecallStore, error) {
	switch cfg.Storage.Driver {
	case "sqlite", "":
		opts := []storage.SQLiteOption{
			storage.WithSimilarityThreshold(cfg.Ranking.SimilarityThreshold),
		}
		if cfg.Storage.ForceSubstring {
			opts = append(opts, storage.WithoutSimilarity())
		}
		return storage.NewSQLiteStore(cfg.Storage.Path, logger, opts...)
	case "postgres":
		var opts []storage.PostgresOption
		if cfg.Storage.ForceSubstring {
			opts = append(opts, storage.WithoutTrigram())
		}
		return storage.NewPostgresStore(ctx, cfg.Storage.DSN, cfg.Ranking.SimilarityThreshold, logger, opts...)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}

func setup(configPath string, debug bool) (*config.Config, *zap.Logger, storage.RecallStore, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create logger: %w", err)
	}
	store, err := openStore(context.Background(), cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}
	return cfg, logger, store, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, store, err := setup(*configPath, *debug)
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	defer store.Close()

	engine := search.NewEngine(store, &cfg.Search, &cfg.Ranking, logger)
	srv := server.NewServer(engine, store, cfg, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 0, "max results (0 uses the configured default)")
	agencies := fs.String("agencies", "", "comma-separated agency codes")
	_ = fs.Parse(os.Args[2:])

	queryText := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if queryText == "" {
		fmt.Println("Usage: recallsearch search [flags] <query>")
		os.Exit(1)
	}

	cfg, logger, store, err := setup(*configPath, false)
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	defer store.Close()

	query := &models.SearchQuery{Query: queryText, Limit: *limit}
	if *agencies != "" {
		for _, a := range strings.Split(*agencies, ",") {
			if a = strings.TrimSpace(a); a != "" {
				query.Agencies = append(query.Agencies, a)
			}
		}
	}

	engine := search.NewEngine(store, &cfg.Search, &cfg.Ranking, logger)
	response, err := engine.Search(context.Background(), query)
	if err != nil {
		fmt.Printf("Search failed: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(response)
}

func runLoad() {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() == 0 {
		fmt.Println("Usage: recallsearch load [flags] <dataset.csv|dataset.xlsx> ...")
		os.Exit(1)
	}

	_, logger, store, err := setup(*configPath, false)
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	defer store.Close()

	loader := ingest.NewLoader(store, logger)
	total := 0
	for _, path := range fs.Args() {
		n, err := loader.LoadFile(context.Background(), path)
		if err != nil {
			fmt.Printf("Load %s failed after %d records: %v\n", path, n, err)
			os.Exit(1)
		}
		fmt.Printf("Loaded %d records from %s\n", n, path)
		total += n
	}
	fmt.Printf("Done: %d records\n", total)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, store, err := setup(*configPath, false)
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	defer store.Close()

	ctx := context.Background()
	count, err := store.Count(ctx)
	if err != nil {
		fmt.Printf("Status failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Driver:     %s\n", cfg.Storage.Driver)
	fmt.Printf("Records:    %d\n", count)
	fmt.Printf("Similarity: %v\n", store.SupportsSimilarity(ctx))
	if cfg.Storage.Driver == "sqlite" {
		if bytes, err := storage.DiskUsageBytes(cfg.Storage.Path); err == nil {
			fmt.Printf("Disk:       %d bytes\n", bytes)
		}
	}
}
