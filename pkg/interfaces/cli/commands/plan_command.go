package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/vsinha/replenish/pkg/application/services/planning"
	"github.com/vsinha/replenish/pkg/domain/repositories"
	"github.com/vsinha/replenish/pkg/domain/services"
	"github.com/vsinha/replenish/pkg/infrastructure/config"
	"github.com/vsinha/replenish/pkg/infrastructure/events"
	"github.com/vsinha/replenish/pkg/infrastructure/logging"
	"github.com/vsinha/replenish/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/replenish/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/replenish/pkg/infrastructure/repositories/postgres"
	"github.com/vsinha/replenish/pkg/interfaces/api"
	"github.com/vsinha/replenish/pkg/interfaces/cli/output"
)

// Plan selections
const (
	PlanRestock  = "restock"
	PlanTransfer = "transfer"
	PlanAll      = "all"
)

// Config holds configuration for the plan command
type Config struct {
	HistoryFile string
	DSN         string
	Table       string
	ConfigFile  string
	Plan        string
	OutputDir   string
	Format      string
	Evaluate    bool
	HoldoutDays int
	Serve       string
	Verbose     bool
	Help        bool

	// Explicit flag overrides; zero values leave the file and environment settings alone
	HorizonDays  int
	Strategy     string
	Rounding     string
	ShortageMode string
	Workers      int

	// Out receives console output; defaults to stdout
	Out io.Writer
}

// PlanCommand runs the replenishment pipelines from the command line
type PlanCommand struct {
	config Config
	out    io.Writer
}

// NewPlanCommand creates a new plan command with the given configuration
func NewPlanCommand(config Config) *PlanCommand {
	out := config.Out
	if out == nil {
		out = os.Stdout
	}
	return &PlanCommand{config: config, out: out}
}

// Execute runs the plan command
func (c *PlanCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	settings, err := c.loadSettings()
	if err != nil {
		return err
	}

	level := settings.LogLevel
	if c.config.Verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{Level: level, Console: true})
	if err != nil {
		return err
	}

	if c.config.Serve != "" {
		return api.NewServer(settings, logger).Run(ctx, c.config.Serve)
	}

	planningConfig, err := settings.Planning()
	if err != nil {
		return err
	}

	if c.config.Verbose {
		c.printHeader(planningConfig)
	}

	repo, err := c.loadHistory(ctx, logger)
	if err != nil {
		return err
	}

	store := events.NewInMemoryEventStore(logger)
	service, err := planning.NewService(planningConfig, logger, planning.WithEventStore(store))
	if err != nil {
		return err
	}

	if c.config.Verbose {
		fmt.Fprintln(c.out, "🔄 Running planning pipelines...")
	}

	startTime := time.Now()
	result := &output.Report{}
	if c.config.Plan == PlanRestock || c.config.Plan == PlanAll {
		result.Restock, err = service.PlanRestock(ctx, repo)
		if err != nil {
			return fmt.Errorf("error running restock plan: %w", err)
		}
	}
	if c.config.Plan == PlanTransfer || c.config.Plan == PlanAll {
		result.Transfers, err = service.PlanTransfers(ctx, repo)
		if err != nil {
			return fmt.Errorf("error running transfer plan: %w", err)
		}
	}
	if c.config.Evaluate {
		result.Evaluation, err = service.Evaluate(ctx, repo, c.config.HoldoutDays)
		if err != nil {
			return fmt.Errorf("error evaluating forecasts: %w", err)
		}
	}
	planTime := time.Since(startTime)

	if c.config.Verbose {
		all, _ := store.ReadAllEvents(0)
		fmt.Fprintf(c.out, "✅ Planning completed in %v (%d events recorded)\n\n", planTime, len(all))
	}

	outputConfig := output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		PlanTime:  planTime,
		Out:       c.out,
	}
	if err := output.Generate(result, outputConfig); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintln(c.out, "🏁 Replenishment planning complete!")
	}
	return nil
}

// validateInputs validates the command configuration
func (c *PlanCommand) validateInputs() error {
	switch c.config.Plan {
	case PlanRestock, PlanTransfer, PlanAll:
	default:
		return fmt.Errorf("unknown plan %q (expected: restock, transfer or all)", c.config.Plan)
	}
	switch c.config.Format {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("unsupported output format: %s", c.config.Format)
	}
	if c.config.Evaluate && c.config.HoldoutDays <= 0 {
		return fmt.Errorf("holdout days must be positive, got %d", c.config.HoldoutDays)
	}
	if c.config.Serve != "" {
		return nil
	}
	if c.config.HistoryFile == "" && c.config.DSN == "" {
		return fmt.Errorf("must specify either -history file or -dsn connection string")
	}
	if c.config.HistoryFile != "" && c.config.DSN != "" {
		return fmt.Errorf("-history and -dsn are mutually exclusive")
	}
	if c.config.HistoryFile != "" {
		if _, err := os.Stat(c.config.HistoryFile); os.IsNotExist(err) {
			return fmt.Errorf("history file not found: %s", c.config.HistoryFile)
		}
	}
	return nil
}

// loadSettings layers explicit flags over the config file and environment
func (c *PlanCommand) loadSettings() (*config.Settings, error) {
	settings, err := config.Load(c.config.ConfigFile)
	if err != nil {
		return nil, err
	}

	if c.config.HorizonDays != 0 {
		settings.HorizonDays = c.config.HorizonDays
	}
	if c.config.Strategy != "" {
		settings.Strategy = c.config.Strategy
	}
	if c.config.Rounding != "" {
		settings.Rounding = c.config.Rounding
	}
	if c.config.ShortageMode != "" {
		settings.ShortageMode = c.config.ShortageMode
	}
	if c.config.Workers != 0 {
		settings.Workers = c.config.Workers
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// loadHistory reads the history table, reports structural problems and indexes it
func (c *PlanCommand) loadHistory(ctx context.Context, logger zerolog.Logger) (*memory.HistoryRepository, error) {
	source, closeSource, err := c.historySource(ctx)
	if err != nil {
		return nil, err
	}
	defer closeSource()

	if c.config.Verbose {
		fmt.Fprintln(c.out, "📂 Loading history...")
	}
	records, err := source.LoadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading history: %w", err)
	}

	c.reportValidation(services.ValidateHistory(records), logger)

	repo := memory.NewHistoryRepository()
	if err := repo.LoadRecords(records); err != nil {
		return nil, fmt.Errorf("failed to load history into repository: %w", err)
	}

	if c.config.Verbose {
		all, _ := repo.GetEntities()
		products, _ := repo.GetProducts()
		fmt.Fprintf(c.out, "✅ History loaded successfully:\n")
		fmt.Fprintf(c.out, "  Rows: %d\n", len(records))
		fmt.Fprintf(c.out, "  Entities: %d\n", len(all))
		fmt.Fprintf(c.out, "  Products: %d\n", len(products))
		fmt.Fprintln(c.out)
	}
	return repo, nil
}

func (c *PlanCommand) historySource(ctx context.Context) (repositories.HistorySource, func(), error) {
	if c.config.HistoryFile != "" {
		return csv.NewFileSource(c.config.HistoryFile), func() {}, nil
	}

	db, err := postgres.Connect(ctx, c.config.DSN)
	if err != nil {
		return nil, nil, err
	}
	table := c.config.Table
	if table == "" {
		table = postgres.DefaultTable
	}
	source, err := postgres.NewHistorySource(db, table)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return source, func() { db.Close() }, nil
}

// reportValidation logs history problems. Conflicting hubs do not stop the run: the affected
// stores are excluded from transfer planning.
func (c *PlanCommand) reportValidation(result *services.ValidationResult, logger zerolog.Logger) {
	for _, msg := range result.Errors {
		logger.Error().Msg(msg)
	}
	for _, msg := range result.Warnings {
		logger.Warn().Msg(msg)
	}

	if !c.config.Verbose {
		return
	}
	fmt.Fprintln(c.out, "🔍 Validating history...")
	if !result.HasErrors() && len(result.Warnings) == 0 {
		fmt.Fprintln(c.out, "✅ History validation passed")
		return
	}
	fmt.Fprintf(c.out, "⚠️  History validation: %d errors, %d warnings\n", len(result.Errors), len(result.Warnings))
}

// printHeader prints the command header information
func (c *PlanCommand) printHeader(cfg planning.Config) {
	fmt.Fprintf(c.out, "🚀 Replenishment Planner CLI\n")
	if c.config.HistoryFile != "" {
		fmt.Fprintf(c.out, "History file: %s\n", c.config.HistoryFile)
	} else {
		fmt.Fprintf(c.out, "History source: postgres\n")
	}
	fmt.Fprintf(c.out, "Plan: %s\n", c.config.Plan)
	fmt.Fprintf(c.out, "Horizon: %d days (transfers: %d days)\n", cfg.HorizonDays, cfg.TransferHorizonDays)
	fmt.Fprintf(c.out, "Strategy: %s\n", cfg.Forecast.Strategy)
	fmt.Fprintf(c.out, "Shortage mode: %s\n", cfg.Policy.Mode)
	fmt.Fprintf(c.out, "Rounding: %s\n", cfg.Rounding)
	fmt.Fprintf(c.out, "Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Fprintf(c.out, "Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Fprintln(c.out)
}

// showHelp displays the help message
func (c *PlanCommand) showHelp() {
	fmt.Fprintf(c.out, `Replenishment Planner CLI - Forecast-driven restocking and hub-to-store transfers

USAGE:
    replenish -history <file> [options]       # Plan from a CSV history table
    replenish -dsn <postgres-url> [options]   # Plan from a Postgres history table
    replenish -serve :8080                    # Serve the planning API

OPTIONS:
    -history <file>      Path to history CSV file
    -dsn <url>           Postgres connection string
    -table <name>        Postgres history table (default: %s)
    -config <file>       YAML configuration file
    -plan <name>         Plan to run: restock, transfer, all (default: all)
    -format <fmt>        Output format: text, json, csv (default: text)
    -output <dir>        Output directory for results (required for csv)
    -horizon <days>      Restock forecast horizon (overrides config)
    -strategy <name>     Forecast strategy: seasonal, moving-average
    -rounding <rule>     Allocation rounding: floor, largest-remainder
    -mode <name>         Shortage mode: projected, stock
    -workers <n>         Concurrent forecasts
    -evaluate            Backtest the forecaster on recent history
    -holdout <days>      Backtest holdout window (default: 7)
    -serve <addr>        Serve the HTTP API instead of planning once
    -verbose             Enable verbose output
    -help                Show this help message

CONFIGURATION:
    Settings are read from built-in defaults, then the -config file, then
    %s* environment variables, then explicit flags.

    horizon_days: 30
    transfer_horizon_days: 7
    critical_fraction: 0.2
    replenish_buffer: 0.1
    rounding: floor
    strategy: seasonal
    moving_average_window: 30
    shortage_mode: projected
    include_healthy: true
    dispatch_high_fraction: 0.1
    cost_ratio: 0.7
    min_history_points: 1
    min_seasonal_points: 14

CSV FILE FORMAT:

history.csv:
    date,location_id,location_type,product_id,sales_quantity,current_stock,lead_time_days,target_stock,price
    2024-01-01,HUB_NORTH,Hub,SKU_1,0,500,5,,12.50
    2024-01-01,STORE_01,Store,SKU_1,14,20,2,80,12.50

EXAMPLES:
    # Full plan with verbose output
    replenish -history data/history.csv -verbose

    # Transfer manifest as CSV
    replenish -history data/history.csv -plan transfer -format csv -output results/

    # Stock-based shortage detection with a two week horizon
    replenish -history data/history.csv -plan restock -mode stock -horizon 14

    # Evaluate forecast accuracy
    replenish -history data/history.csv -evaluate -holdout 14 -format json
`, postgres.DefaultTable, config.EnvPrefix)
}
