package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/campaignsplit/internal/config"
	"github.com/JonMunkholm/campaignsplit/internal/core"
	_ "github.com/JonMunkholm/campaignsplit/internal/core/groups" // Register all groups
	"github.com/JonMunkholm/campaignsplit/internal/csvio"
	"github.com/JonMunkholm/campaignsplit/internal/logging"
	"github.com/JonMunkholm/campaignsplit/internal/sink"
	"github.com/JonMunkholm/campaignsplit/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "campaignsplit",
	Short: "Split campaign archives into client, campaign and economics tables",
	Long: `Reads every *.csv.zip archive in INPUT_DIR, classifies each entry by its
columns and writes client.csv, campaign.csv and economics.csv to OUTPUT_DIR.

Settings come from the environment (or a .env file). Optional outputs:
  XLSX_PATH       also write one workbook with a sheet per group
  DATABASE_URL    also load each group into <DB_SCHEMA>.<group> with COPY
  HISTORY_DB_PATH record every run in a SQLite ledger`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSplit,
}

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	rootCmd.AddCommand(historyCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints the operator message for a failed run and logs the
// underlying cause. Errors from outside the pipeline are printed as is.
func reportError(w io.Writer, err error) {
	var ue *core.UserError
	if !errors.As(err, &ue) {
		fmt.Fprintln(w, "error:", err)
		return
	}
	slog.Error("run failed", "code", ue.User.Code, "error", ue.Technical)
	if !core.IsUserFacing(ue) {
		fmt.Fprintln(w, "error:", ue.Technical)
		return
	}
	fmt.Fprintln(w, "error:", core.FormatUserError(ue))
}

// loadConfig loads and validates configuration, then sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())
	return cfg, nil
}

func runSplit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sinks, err := buildSinks(ctx, cfg)
	if err != nil {
		return err
	}

	var recorder core.Recorder
	if cfg.History.Enabled() {
		db, err := storage.Open(cfg.History.Path)
		if err != nil {
			closeSinks(ctx, sinks)
			return fmt.Errorf("open history %s: %w", cfg.History.Path, err)
		}
		defer db.Close()
		recorder = db
	}

	slog.Info("groups registered", "count", core.GroupCount(), "groups", core.Keys())

	service, err := core.NewService(core.Options{
		InputDir:  cfg.Pipeline.InputDir,
		OutputDir: cfg.Output.Dir,
		Pattern:   cfg.Pipeline.Pattern,
		Timeout:   cfg.Pipeline.Timeout,
	}, sinks, recorder)
	if err != nil {
		closeSinks(ctx, sinks)
		return err
	}

	result, err := service.Run(ctx)
	if encErr := emitJSON(result); encErr != nil {
		slog.Error("failed to write run summary", "error", encErr)
	}
	if err != nil {
		return core.NewUserError(err)
	}
	return nil
}

// buildSinks returns the CSV directory sink plus any optional sinks the
// configuration enables.
func buildSinks(ctx context.Context, cfg *config.Config) ([]core.Sink, error) {
	csvSink, err := sink.NewCSVDir(cfg.Output.Dir, csvio.Options{Comma: cfg.Output.Comma()})
	if err != nil {
		return nil, err
	}
	sinks := []core.Sink{csvSink}

	if cfg.Output.XLSXPath != "" {
		sinks = append(sinks, sink.NewXLSX(cfg.Output.XLSXPath))
	}

	if cfg.Database.Enabled() {
		pg, err := sink.NewPostgres(ctx, sink.PostgresConfig{
			URL:      cfg.Database.URL,
			Schema:   cfg.Database.Schema,
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			closeSinks(ctx, sinks)
			return nil, err
		}
		slog.Info("connected to database", "schema", cfg.Database.Schema)
		sinks = append(sinks, pg)
	}

	return sinks, nil
}

func closeSinks(ctx context.Context, sinks []core.Sink) {
	for _, s := range sinks {
		if _, err := s.Close(ctx); err != nil {
			slog.Warn("failed to close sink", "sink", s.Name(), "error", err)
		}
	}
}

func emitJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
