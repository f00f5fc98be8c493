// Package main is the bizsearch CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/bizsearch/internal/chat"
	"github.com/hyperjump/bizsearch/internal/cli"
	"github.com/hyperjump/bizsearch/internal/config"
	"github.com/hyperjump/bizsearch/internal/ingest"
	"github.com/hyperjump/bizsearch/internal/models"
	"github.com/hyperjump/bizsearch/internal/online"
	"github.com/hyperjump/bizsearch/internal/query"
	"github.com/hyperjump/bizsearch/internal/ranking"
	"github.com/hyperjump/bizsearch/internal/search"
	"github.com/hyperjump/bizsearch/internal/server"
	"github.com/hyperjump/bizsearch/internal/storage"
	"github.com/hyperjump/bizsearch/internal/watcher"
	"github.com/hyperjump/bizsearch/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/bizsearch/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("bizsearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads the config and builds a logger, exiting on failure.
func setup(configPath string, debugFlag bool) (*config.Config, string, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || debugFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolved, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (query routing, model fallbacks, reloads)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger := setup(*configPath, *debug)
	defer logger.Sync()
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", cfg.Debug || *debug),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if components.Reloader != nil {
		if err := components.Reloader.Start(watchCtx); err != nil {
			logger.Warn("model hot reload disabled", zap.String("path", cfg.Ranking.ModelPath), zap.Error(err))
		}
	}

	srv := server.NewServer(
		components.Engine,
		components.Catalog,
		components.Models,
		cfg.Storage.MissingLogPath,
		&cfg.Server,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: bizsearch search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Queries naming a service ("best", "clinic", "restaurant", ...) are answered
from the catalog; a trailing "in <city>" filters by city. Other questions go
to the assistant when chat is enabled.

Examples:
  bizsearch search best dentist in pune
  bizsearch search "top restaurant in bandra"      # same quoting rules
  bizsearch search --limit 3 --output json clinic near me
  bizsearch search --no-explain seo companies in mumbai
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchConfigPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func searchConfigPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

// searchLimitDefaultFromConfig returns ranking.top_n from the config at path,
// or the built-in default when the config cannot be loaded.
func searchLimitDefaultFromConfig(path string) int {
	def := ranking.DefaultRankingConfig().TopN
	cfg, _, err := loadConfig(path)
	if err != nil || cfg == nil {
		return def
	}
	return cfg.Ranking.TopN
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func parseOutputFormat(s string, allowed ...cli.SearchOutputFormat) (cli.SearchOutputFormat, error) {
	for _, f := range allowed {
		if string(f) == s {
			return f, nil
		}
	}
	names := make([]string, len(allowed))
	for i, f := range allowed {
		names[i] = string(f)
	}
	return "", fmt.Errorf("unknown output format %q; use %s", s, strings.Join(names, " or "))
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])
	configPath := searchConfigPathFromArgs(searchArgs, defaultConfigPath)

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPathFlag := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open the catalog directly)")
	limit := fs.Int("limit", searchLimitDefaultFromConfig(configPath), "number of results")
	noExplain := fs.Bool("no-explain", false, "omit per-result explanations")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := parseOutputFormat(*outputFormat, cli.OutputText, cli.OutputJSON)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	searchQuery := &models.SearchQuery{
		Query:     queryStr,
		Limit:     *limit,
		NoExplain: *noExplain,
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, searchQuery)
	} else {
		cfg, _, logger := setup(*configPathFlag, false)
		defer logger.Sync()
		components, initErr := initializeComponents(cfg, logger)
		if initErr != nil {
			logger.Fatal("Failed to initialize", zap.Error(initErr))
		}
		defer components.Close()
		response, err = components.Engine.Search(context.Background(), searchQuery)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, q *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open the catalog directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := parseOutputFormat(*outputFormat, cli.OutputText, cli.OutputJSON)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var status map[string]interface{}
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		components, initErr := initializeComponents(cfg, logger)
		if initErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", initErr)
			os.Exit(1)
		}
		defer components.Close()
		status, err = localStatus(context.Background(), components, cfg.Storage.MissingLogPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (map[string]interface{}, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var s map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return s, nil
}

// localStatus builds the same payload as GET /api/v1/status without a server.
func localStatus(ctx context.Context, c *Components, missingLogPath string) (map[string]interface{}, error) {
	count, err := c.Catalog.CountBusinesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("count businesses: %w", err)
	}
	st := server.StatusResponse{Businesses: count, Model: c.Models.Info()}
	if size, err := c.Catalog.SizeBytes(ctx); err == nil {
		st.StorageBytes = size
	}
	if entries, err := online.ReadMissingLog(missingLogPath); err == nil {
		st.MissingQueries = len(entries)
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	skipKnownPhones := fs.Bool("skip-known-phones", false, "skip rows whose phone number is already in the catalog")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: bizsearch import [flags] <listings.xlsx|listings.csv>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, logger := setup(*configPath, false)
	defer logger.Sync()

	catalog, err := openCatalog(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to open catalog", zap.Error(err))
	}
	defer catalog.Close()

	n, skipped, err := importListings(context.Background(), catalog, path, *skipKnownPhones)
	if err != nil {
		fmt.Printf("Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d business(es) from %s (%d skipped)\n", n, path, skipped)
}

// importListings reads a spreadsheet and stores its rows in one batch.
func importListings(ctx context.Context, catalog storage.Catalog, path string, skipKnownPhones bool) (imported, skipped int, err error) {
	records, err := ingest.ReadListings(path)
	if err != nil {
		return 0, 0, err
	}
	batch := make([]*models.BusinessRecord, 0, len(records))
	for _, b := range records {
		if skipKnownPhones && storage.PhoneDigits(b.PhoneNumber) != "" {
			if _, err := catalog.FindByPhone(ctx, b.PhoneNumber); err == nil {
				skipped++
				continue
			}
		}
		batch = append(batch, b)
	}
	if len(batch) == 0 {
		return 0, skipped, nil
	}
	if err := catalog.BatchCreateBusinesses(ctx, batch); err != nil {
		return 0, skipped, err
	}
	return len(batch), skipped, nil
}

// Components holds initialized services.
type Components struct {
	Catalog  storage.Catalog
	Models   *ranking.ModelHandle
	Reloader *watcher.ModelReloader
	Missing  *online.MissingLog
	Engine   *search.Engine
}

// Close releases every component in reverse dependency order.
func (c *Components) Close() {
	if c.Reloader != nil {
		c.Reloader.Stop()
	}
	if c.Missing != nil {
		_ = c.Missing.Close()
	}
	if c.Models != nil {
		_ = ranking.CloseScorer(c.Models.Load())
	}
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
}

func openCatalog(ctx context.Context, cfg *config.Config) (storage.Catalog, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return storage.NewPostgresStorage(ctx, cfg.Storage.DSN)
	default:
		return storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	catalog, err := openCatalog(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Catalog: catalog}

	scorer, err := ranking.LoadScorer(cfg.Ranking.ModelPath)
	if err != nil {
		logger.Warn("ranker model not loaded, using heuristic scores",
			zap.String("path", cfg.Ranking.ModelPath), zap.Error(err))
		scorer = ranking.NullScorer{}
	}
	c.Models = ranking.NewModelHandle(scorer, cfg.Ranking.ModelPath)
	logger.Info("ranker model", zap.String("name", scorer.Name()))
	if cfg.Ranking.WatchModel {
		c.Reloader = watcher.NewModelReloader(cfg.Ranking.ModelPath, c.Models, watcher.WithLogger(logger))
	}

	rankCfg := cfg.Ranking.RankingConfig
	ranker := ranking.NewRanker(&rankCfg, c.Models).WithLogger(logger)

	opts := []search.Option{
		search.WithClassifier(query.NewClassifier(cfg.Query.IntentTerms...)),
		search.WithMaxCandidates(cfg.Ranking.MaxCandidates),
		search.WithLogger(logger),
	}

	if cfg.Online.Enabled {
		if cfg.Online.APIKey == "" {
			logger.Warn("online search enabled without an API key; set " + config.EnvSerpAPIKey)
		} else {
			client := online.NewSerpAPIClient(cfg.Online.BaseURL, cfg.Online.APIKey,
				time.Duration(cfg.Online.TimeoutSeconds)*time.Second, logger)
			opts = append(opts, search.WithExternalSearch(client))
		}
	}

	if cfg.Storage.MissingLogPath != "" {
		missing, err := online.NewMissingLog(cfg.Storage.MissingLogPath, logger)
		if err != nil {
			logger.Warn("missing-query log disabled", zap.Error(err))
		} else {
			c.Missing = missing
			opts = append(opts, search.WithMissingLog(missing))
		}
	}

	if cfg.Chat.Enabled {
		assistant, err := chat.NewLLMAssistant(chat.Config{
			BaseURL: cfg.Chat.BaseURL,
			Model:   cfg.Chat.Model,
			APIKey:  cfg.Chat.APIKey,
		}, logger)
		if err != nil {
			logger.Warn("assistant disabled", zap.Error(err))
		} else {
			opts = append(opts, search.WithAssistant(assistant))
		}
	}

	c.Engine = search.NewEngine(catalog, ranker, opts...)
	return c, nil
}

func printUsage() {
	fmt.Println(`bizsearch - natural-language business search

Usage:
  bizsearch server [flags]            Start the HTTP server
  bizsearch search [flags] <query>    Search the business catalog
  bizsearch import [flags] <file>     Import listings from .xlsx or .csv
  bizsearch status [flags]            Show catalog, model and missing-query status
  bizsearch version                   Show version
  bizsearch help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/bizsearch/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string    Config file path (for direct catalog mode; also used for the default limit)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to open the catalog directly.
  --limit int        Number of results (default from ranking.top_n, or 10)
  --no-explain       Omit per-result explanations
  --output string    Output format: text or json (default: text)

Import Flags:
  --config string        Config file path
  --skip-known-phones    Skip rows whose phone number is already in the catalog

Status Flags:
  --config string    Config file path (for direct catalog mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct catalog access.
  --output string    Output format: text or json (default: text)

Examples:
  bizsearch server
  bizsearch import listings.xlsx
  bizsearch search best dentist in pune
  bizsearch search --output json "top restaurant in bandra"
  bizsearch status --output json`)
}
