package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jdubz/job-finder-worker/internal/ai"
	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/config"
	"github.com/jdubz/job-finder-worker/internal/enrichment/htmlfetch"
	"github.com/jdubz/job-finder-worker/internal/enrichment/search"
	"github.com/jdubz/job-finder-worker/internal/enrichment/wikipedia"
	"github.com/jdubz/job-finder-worker/internal/intake"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/metrics"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/jdubz/job-finder-worker/internal/processors"
	"github.com/jdubz/job-finder-worker/internal/queue"
	"github.com/jdubz/job-finder-worker/internal/scheduler"
	"github.com/jdubz/job-finder-worker/internal/scraper"
	"github.com/jdubz/job-finder-worker/internal/seed"
	"github.com/jdubz/job-finder-worker/internal/services/events"
	"github.com/jdubz/job-finder-worker/internal/storage"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
	_ "modernc.org/sqlite"
)

// configPaths is a custom flag type that allows multiple -config flags,
// the same repeatable-flag shape the teacher's cmd/quaero/main.go uses.
type configPaths []string

func (c *configPaths) String() string { return fmt.Sprintf("%v", *c) }
func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles configPaths
	showVersion = flag.Bool("version", false, "Print version information")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("job-finder-worker version %s\n", common.GetVersion())
		os.Exit(0)
	}

	if len(configFiles) == 0 {
		if _, err := os.Stat("worker.toml"); err == nil {
			configFiles = append(configFiles, "worker.toml")
		}
	}

	// Startup sequence (REQUIRED ORDER): 1. Load config 2. Initialize
	// logger 3. Print banner 4. Wire collaborators 5. Start.
	cfg, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := common.GetLogger()
		tempLogger.Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.SetupLogger(cfg)
	common.PrintBanner(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageMgr, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storageMgr.Close()

	if cfg.Storage.SeedSourcesPath != "" {
		seedSourceFile(ctx, cfg.Storage.SeedSourcesPath, storageMgr.JobSourceStorage(), logger)
	}

	eventSvc := events.NewService(logger)
	if err := events.SubscribeLoggerToAllEvents(eventSvc, logger); err != nil {
		logger.Warn().Err(err).Msg("Failed to attach logger event subscriber")
	}

	configSvc, err := config.NewService(storageMgr.ConfigStorage(), eventSvc, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize config service")
	}
	defer configSvc.Close()

	workerSettings, err := configSvc.WorkerSettings(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load worker_settings policy")
	}
	aiSettings, err := configSvc.AISettings(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load ai_settings policy")
	}

	queueDB, err := sql.Open("sqlite", cfg.Storage.Queue.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open queue database")
	}
	defer queueDB.Close()

	leaseMgr, err := queue.NewLeaseManager(queueDB, cfg.Queue.QueueName)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize lease manager")
	}
	defer leaseMgr.Close()

	spawnGate := queue.NewSpawnGate(storageMgr.TaskStorage(), leaseMgr, eventSvc)

	pollInterval, err := time.ParseDuration(cfg.Queue.PollInterval)
	if err != nil || pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	metricsReg := metrics.New(nil)

	dispatcher := queue.NewDispatcher(leaseMgr, storageMgr.TaskStorage(), eventSvc, pollInterval, cfg.Queue.Concurrency, *workerSettings, logger, metricsReg)

	agents := buildAgents(ctx, cfg, logger)
	aiManager := ai.NewManager(agents, *aiSettings, storageMgr.CounterStorage(), logger)

	wikiClient := wikipedia.New(logger, cfg.Crawler.UserAgent, cfg.Crawler.RequestTimeout)

	searchClient := buildSearchClient(ctx, cfg, aiSettings, storageMgr.CounterStorage(), logger)

	var fetcher *htmlfetch.Fetcher
	fetchCfg := htmlfetch.Config{
		UserAgent:           cfg.Crawler.UserAgent,
		RequestTimeout:      cfg.Crawler.RequestTimeout,
		MaxRedirects:        cfg.Crawler.MaxRedirects,
		MaxHTMLSampleLength: cfg.Crawler.MaxHTMLSampleLength,
		EnableJavaScript:    cfg.Crawler.EnableJavaScript,
		JavaScriptWaitTime:  cfg.Crawler.JavaScriptWaitTime,
	}
	if cfg.Crawler.EnableJavaScript {
		renderer := htmlfetch.NewChromeDPRenderer(logger, cfg.Crawler.UserAgent)
		fetcher = htmlfetch.New(fetchCfg, logger, renderer)
	} else {
		fetcher = htmlfetch.New(fetchCfg, logger, nil)
	}

	jobScraper := scraper.New(cfg.Crawler.RequestTimeout, logger)

	deps := &processors.Deps{
		Storage:   storageMgr,
		Config:    configSvc,
		Events:    eventSvc,
		SpawnGate: spawnGate,
		AI:        aiManager,
		Wikipedia: wikiClient,
		Search:    searchClient,
		HTMLFetch: fetcher,
		Scraper:   jobScraper,
		Logger:    logger,
	}

	dispatcher.RegisterHandler(models.TaskKindCompany, deps.HandleCompany)
	dispatcher.RegisterHandler(models.TaskKindSourceDiscovery, deps.HandleSourceDiscovery)
	dispatcher.RegisterHandler(models.TaskKindScrapeSource, deps.HandleScrapeSource)
	dispatcher.RegisterHandler(models.TaskKindJobListing, deps.HandleJobListing)

	processors.SetRequeueFunc(func(task *models.Task) error {
		return leaseMgr.Enqueue(context.Background(), models.QueueMessage{TaskID: task.ID, Kind: task.Kind})
	})

	schedulerSvc := scheduler.NewService(storageMgr.TaskStorage(), storageMgr.JobSourceStorage(), configSvc, leaseMgr, eventSvc, logger, metricsReg)

	// intakeSvc is constructed here and handed off for an external HTTP
	// API process to call into directly - spec §6 says the worker does
	// not define its own HTTP surface.
	_ = intake.NewService(spawnGate, configSvc)

	if err := dispatcher.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start dispatcher")
	}
	if err := schedulerSvc.Start(workerSettings.HealthSweepCron); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start health sweep scheduler")
	}

	logger.Info().
		Int("concurrency", cfg.Queue.Concurrency).
		Str("queue", cfg.Queue.QueueName).
		Msg("Job finder worker ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutdown signal received, draining in-flight work")

	if err := schedulerSvc.Stop(); err != nil {
		logger.Warn().Err(err).Msg("Error stopping health sweep scheduler")
	}
	if err := dispatcher.Stop(); err != nil {
		logger.Warn().Err(err).Msg("Error stopping dispatcher")
	}
	common.PrintShutdownBanner(logger)
}

// seedSourceFile bulk-imports JobSource records from a YAML seed file
// (internal/seed) before the dispatcher starts. Failures are logged,
// not fatal - an operator typo in the seed file shouldn't keep the
// worker from processing its existing task backlog.
func seedSourceFile(ctx context.Context, path string, sources interfaces.JobSourceStorage, logger arbor.ILogger) {
	entries, err := seed.LoadSources(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to load source seed file, skipping")
		return
	}
	saved, err := seed.ApplySources(ctx, sources, entries, time.Now())
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Int("saved", saved).Msg("Some seed sources failed to import")
	}
	logger.Info().Str("path", path).Int("count", saved).Msg("Imported seed job sources")
}

// buildAgents constructs one interfaces.Agent per provider with a
// configured API key. Agents not configured are simply omitted - the
// AI Manager routes by AgentConfig.Provider per task kind, so a worker
// can run Claude-only, Gemini-only, or both.
func buildAgents(ctx context.Context, cfg *common.Config, logger arbor.ILogger) []interfaces.Agent {
	var agents []interfaces.Agent

	if cfg.Claude.APIKey != "" {
		timeout, err := time.ParseDuration(cfg.Claude.Timeout)
		if err != nil || timeout <= 0 {
			timeout = 60 * time.Second
		}
		claudeAgent, err := ai.NewClaudeAgent(cfg.Claude.APIKey, timeout, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Claude agent, skipping")
		} else {
			agents = append(agents, claudeAgent)
		}
	}

	if cfg.Gemini.APIKey != "" {
		timeout, err := time.ParseDuration(cfg.Gemini.Timeout)
		if err != nil || timeout <= 0 {
			timeout = 60 * time.Second
		}
		geminiAgent, err := ai.NewGeminiAgent(ctx, cfg.Gemini.APIKey, timeout, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini agent, skipping")
		} else {
			agents = append(agents, geminiAgent)
		}
	}

	return agents
}

// buildSearchClient wires the web-search enrichment client (spec §4.5):
// a Gemini-grounded search when a Gemini key is configured and
// ai_settings.search_provider asks for it, falling back to the keyless
// DuckDuckGo Instant Answer HTTP API otherwise.
func buildSearchClient(ctx context.Context, cfg *common.Config, aiSettings *models.AISettings, counters interfaces.CounterStorage, logger arbor.ILogger) *search.Client {
	var provider search.Provider

	if aiSettings.SearchProvider == "gemini" && cfg.Gemini.APIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.Gemini.APIKey, Backend: genai.BackendGeminiAPI})
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini search client, falling back to HTTP search")
			provider = search.NewHTTPFallback(logger, cfg.Crawler.UserAgent, cfg.Crawler.RequestTimeout)
		} else {
			provider = search.NewGemini(client, cfg.Gemini.Model, logger)
		}
	} else {
		provider = search.NewHTTPFallback(logger, cfg.Crawler.UserAgent, cfg.Crawler.RequestTimeout)
	}

	return search.New(provider, counters, aiSettings.SearchDailyCap, 1.0, aiSettings.SearchMaxResults)
}
