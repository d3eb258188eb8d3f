package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/finsim/finsim/internal/config"
	"github.com/finsim/finsim/internal/logging"
	"github.com/finsim/finsim/internal/services"
	"github.com/finsim/finsim/internal/storage"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var Version = "dev" // Injected via ldflags during build

// toolEnv is built in Before and shared by every command
type toolEnv struct {
	cfg        *config.Config
	logger     *logging.Logger
	repo       *storage.SQLiteRepository
	projection *services.ProjectionService
	analysis   *services.AnalysisService
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(&toolEnv{}).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "finsim: %v\n", err)
		os.Exit(1)
	}
}

func newApp(env *toolEnv) *cli.App {
	return &cli.App{
		Name:    "finsim",
		Usage:   "revenue projection and risk analysis over a local fundamentals store",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file",
				EnvVars: []string{"FINSIM_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file loaded before configuration (ignored when missing)",
			},
			&cli.StringFlag{
				Name:  "dsn",
				Usage: "override storage.dsn",
			},
		},
		Before: env.setup,
		After:  env.close,
		Commands: []*cli.Command{
			estimateCommand(env),
			simulateCommand(env),
			projectCommand(env),
			riskCommand(env),
			ratiosCommand(env),
			trendCommand(env),
			sectorCommand(env),
			compareCommand(env),
			screenCommand(env),
			companiesCommand(env),
			importCommand(env),
		},
	}
}

func (e *toolEnv) setup(c *cli.Context) error {
	if err := godotenv.Load(c.String("env-file")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", c.String("env-file"), err)
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if dsn := c.String("dsn"); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	// stdout carries command output
	if cfg.Logging.OutputPath == "" || cfg.Logging.OutputPath == "stdout" {
		cfg.Logging.OutputPath = "stderr"
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		return err
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := storage.OpenSQLite(c.Context, cfg.Storage.ResolveDSN())
	if err != nil {
		return err
	}
	if err := storage.InitSchema(c.Context, db); err != nil {
		_ = db.Close()
		return err
	}

	e.cfg = cfg
	e.logger = logger
	e.repo = storage.NewSQLiteRepository(db, logger)
	e.projection = services.NewProjectionService(logger, e.repo, cfg.Simulation)
	e.analysis = services.NewAnalysisService(logger, e.repo, cfg.Risk)
	return nil
}

func (e *toolEnv) close(c *cli.Context) error {
	if e.repo == nil {
		return nil
	}
	return e.repo.Close()
}
