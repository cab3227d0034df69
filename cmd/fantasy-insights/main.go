package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rewired-gh/fantasy-insights/internal/analysis"
	"github.com/rewired-gh/fantasy-insights/internal/api"
	"github.com/rewired-gh/fantasy-insights/internal/config"
	"github.com/rewired-gh/fantasy-insights/internal/ingest"
	"github.com/rewired-gh/fantasy-insights/internal/logger"
	"github.com/rewired-gh/fantasy-insights/internal/metrics"
	"github.com/rewired-gh/fantasy-insights/internal/models"
	"github.com/rewired-gh/fantasy-insights/internal/report"
	"github.com/rewired-gh/fantasy-insights/internal/storage"
	"github.com/rewired-gh/fantasy-insights/internal/telegram"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	position   = flag.String("position", "", "Analyse a single position (QB, RB, WR, TE)")
	week       = flag.Int("week", 0, "Also print the top performers of this week")
	weekFrom   = flag.Int("week-from", 0, "First week of the range leaders table (0 = season start)")
	weekTo     = flag.Int("week-to", 0, "Last week of the range leaders table (0 = latest)")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup logging with level support
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	positions := cfg.PositionList()
	if *position != "" {
		pos, err := models.ParsePosition(*position)
		if err != nil {
			logger.Fatal("Invalid -position: %v", err)
		}
		positions = []models.Position{pos}
	}
	if *weekFrom < 0 || *weekTo < 0 || (*weekTo > 0 && *weekFrom > *weekTo) {
		logger.Fatal("Invalid week range %d-%d", *weekFrom, *weekTo)
	}

	engine := analysis.New(cfg.AnalysisOptions())
	m := metrics.New()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	// Initialize Telegram client
	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram digest disabled")
	}

	state, err := runAnalysis(ctx, cfg, engine, m, positions)
	if err != nil {
		logger.Fatal("Analysis failed: %v", err)
	}

	if err := writeOutputs(os.Stdout, cfg, engine, state, positions); err != nil {
		logger.Fatal("Failed to write report: %v", err)
	}

	if telegramClient != nil {
		if err := telegramClient.SendDigest(ctx, state.Report, cfg.Telegram.TopN); err != nil {
			logger.Error("Failed to send Telegram digest: %v", err)
		}
	}

	if cfg.Server.Addr == "" {
		return
	}

	srv := api.NewServer(engine, m, state)
	if cfg.Data.ReloadInterval > 0 {
		go reloadLoop(ctx, cfg, engine, m, positions, srv, telegramClient)
	}
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		logger.Fatal("%v", err)
	}
	logger.Info("Service stopped")
}

// runAnalysis ingests the data directory into a fresh store and runs every
// season analysis over its snapshot.
func runAnalysis(ctx context.Context, cfg *config.Config, engine *analysis.Engine, m *metrics.Metrics, positions []models.Position) (*api.State, error) {
	startTime := time.Now()

	store := storage.New(cfg.Data.MaxWeek)
	results, err := ingest.LoadDir(store, cfg.Data.Dir, positions)
	if err != nil {
		return nil, fmt.Errorf("failed to ingest %s: %w", cfg.Data.Dir, err)
	}
	skipped := 0
	for _, res := range results {
		m.ObserveLoad(res)
		skipped += res.Skipped
	}
	if skipped > 0 {
		logger.Warn("Skipped %d malformed rows across %d tables", skipped, len(results))
	}

	snap := store.Snapshot()
	loaded := loadedPositions(snap, positions)
	if len(loaded) == 0 {
		return nil, fmt.Errorf("no rows loaded for positions %v", positions)
	}

	analysisStart := time.Now()
	rep, err := engine.RunAll(ctx, snap, loaded...)
	if err != nil {
		return nil, err
	}
	m.ObserveReport(rep, time.Since(analysisStart))

	logger.Info("Analysis completed in %v (%d tables, %d league weeks)", time.Since(startTime), len(results), rep.LeagueWeeks)
	return api.NewState(snap, rep), nil
}

func loadedPositions(snap *storage.Snapshot, wanted []models.Position) []models.Position {
	have := make(map[models.Position]bool)
	for _, p := range snap.Positions() {
		have[p] = true
	}
	var out []models.Position
	for _, p := range wanted {
		if have[p] {
			out = append(out, p)
		}
	}
	return out
}

func writeOutputs(w io.Writer, cfg *config.Config, engine *analysis.Engine, state *api.State, positions []models.Position) error {
	switch cfg.Report.Format {
	case "json":
		if ignored := textOnlyFlags(*week, *weekFrom, *weekTo); len(ignored) > 0 {
			logger.Warn("Ignoring %s with report format json; use the text format or the HTTP API", strings.Join(ignored, ", "))
		}
		if err := report.WriteJSON(w, state.Report); err != nil {
			return err
		}
	default:
		if err := report.WriteText(w, state.Report, cfg.Analysis.TopN); err != nil {
			return err
		}
		if *weekFrom > 0 || *weekTo > 0 {
			wr := models.WeekRange{From: *weekFrom, To: *weekTo}
			for _, pos := range loadedPositions(state.Snapshot, positions) {
				if err := report.WriteRanking(w, engine.RangeLeaders(state.Snapshot, pos, wr), cfg.Analysis.TopN); err != nil {
					return err
				}
			}
		}
		if *week > 0 {
			for _, r := range engine.WeeklySummary(state.Snapshot, *week, cfg.Analysis.TopN) {
				if err := report.WriteRanking(w, r, cfg.Analysis.TopN); err != nil {
					return err
				}
			}
		}
	}

	if cfg.Report.XLSXPath != "" {
		if err := report.WriteXLSX(cfg.Report.XLSXPath, state.Report, cfg.Analysis.TopN); err != nil {
			return err
		}
		logger.Info("Workbook written to %s", cfg.Report.XLSXPath)
	}
	return nil
}

// textOnlyFlags names the set flags that only the text report prints.
func textOnlyFlags(week, weekFrom, weekTo int) []string {
	var names []string
	if week > 0 {
		names = append(names, "-week")
	}
	if weekFrom > 0 {
		names = append(names, "-week-from")
	}
	if weekTo > 0 {
		names = append(names, "-week-to")
	}
	return names
}

// reloadLoop re-ingests the data directory on every tick and swaps the
// served state. A failed reload keeps serving the previous run.
func reloadLoop(ctx context.Context, cfg *config.Config, engine *analysis.Engine, m *metrics.Metrics, positions []models.Position, srv *api.Server, telegramClient *telegram.Client) {
	ticker := time.NewTicker(cfg.Data.ReloadInterval)
	defer ticker.Stop()

	consecutiveFailures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Debug("Starting scheduled reload")
			state, err := runAnalysis(ctx, cfg, engine, m, positions)
			if err != nil {
				consecutiveFailures++
				logger.Error("Reload failed (%d in a row): %v", consecutiveFailures, err)
				continue
			}
			consecutiveFailures = 0
			srv.Update(state)

			if telegramClient != nil {
				if err := telegramClient.SendDigest(ctx, state.Report, cfg.Telegram.TopN); err != nil {
					logger.Warn("Failed to send Telegram digest: %v", err)
				}
			}
		}
	}
}
