package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsinha/replenish/pkg/interfaces/cli/commands"
)

func main() {
	// Command line flags
	var (
		historyFile = flag.String("history", "", "Path to history CSV file")
		dsn         = flag.String("dsn", "", "Postgres connection string for the history table")
		table       = flag.String("table", "", "Postgres history table name")
		configFile  = flag.String("config", "", "Path to YAML configuration file")
		plan        = flag.String("plan", commands.PlanAll, "Plan to run: restock, transfer, all")
		outputDir   = flag.String("output", "", "Output directory for results (optional)")
		format      = flag.String("format", "text", "Output format: text, json, csv")
		horizon     = flag.Int("horizon", 0, "Restock forecast horizon in days")
		strategy    = flag.String("strategy", "", "Forecast strategy: seasonal, moving-average")
		rounding    = flag.String("rounding", "", "Allocation rounding: floor, largest-remainder")
		mode        = flag.String("mode", "", "Shortage mode: projected, stock")
		workers     = flag.Int("workers", 0, "Number of concurrent forecasts")
		evaluate    = flag.Bool("evaluate", false, "Backtest forecast accuracy")
		holdout     = flag.Int("holdout", 7, "Backtest holdout window in days")
		serve       = flag.String("serve", "", "Serve the HTTP API on this address")
		verbose     = flag.Bool("verbose", false, "Enable verbose output")
		help        = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	// Create command configuration
	config := commands.Config{
		HistoryFile:  *historyFile,
		DSN:          *dsn,
		Table:        *table,
		ConfigFile:   *configFile,
		Plan:         *plan,
		OutputDir:    *outputDir,
		Format:       *format,
		Evaluate:     *evaluate,
		HoldoutDays:  *holdout,
		Serve:        *serve,
		Verbose:      *verbose,
		Help:         *help,
		HorizonDays:  *horizon,
		Strategy:     *strategy,
		Rounding:     *rounding,
		ShortageMode: *mode,
		Workers:      *workers,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := commands.NewPlanCommand(config)
	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
