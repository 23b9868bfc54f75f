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

	"github.com/casescout/casescout/app/api"
	"github.com/casescout/casescout/app/cfg"
	"github.com/casescout/casescout/app/crawler"
	"github.com/casescout/casescout/app/database"
	"github.com/casescout/casescout/app/fetcher"
	"github.com/casescout/casescout/app/llm"
	"github.com/casescout/casescout/app/report"
	"github.com/casescout/casescout/app/research"
	"github.com/casescout/casescout/app/search"
	"github.com/casescout/casescout/app/sites"
	"github.com/casescout/casescout/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting CaseScout server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	migrationVersion, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", migrationVersion, "dirty", dirty)

	companyRepo := database.NewCompanyRepository(db)
	articleRepo := database.NewArticleRepository(db)
	jobRepo := database.NewJobRepository(db)
	settingsRepo := database.NewSettingsRepository(db)

	siteTable, err := sites.Load(appCfg.SitesFile)
	if err != nil {
		slog.Error("Failed to load site rules", "path", appCfg.SitesFile, "error", err)
		os.Exit(1)
	}

	gateway := llm.NewClient(appCfg.OllamaURL, appCfg.OllamaModel,
		time.Duration(appCfg.OllamaProbeTTL)*time.Second)

	provider := search.NewDuckDuckGoProvider(appCfg.UserAgent)
	searcher := search.NewSearcher(provider, llm.NewRelevanceClassifier(gateway), appCfg.SearchFilterEnable)
	scraper := crawler.NewScraper(siteTable, gateway, appCfg.UserAgent)
	contentFetcher := fetcher.NewFetcher(siteTable, appCfg.UserAgent)

	orchestrator := research.NewOrchestrator(companyRepo, articleRepo, jobRepo, settingsRepo,
		searcher, scraper, contentFetcher, gateway)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount,
		"interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(jobRepo, settingsRepo, orchestrator)
	scheduler.Start()
	defer scheduler.Stop()

	reportGen := report.NewGenerator(companyRepo, articleRepo)
	handler := api.NewHandler(companyRepo, articleRepo, jobRepo, settingsRepo,
		reportGen, scheduler, orchestrator)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
