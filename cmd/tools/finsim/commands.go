package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/finsim/finsim/internal/services"
	"github.com/finsim/finsim/internal/storage"
	"github.com/urfave/cli/v2"
)

func simulationFlags(extra ...cli.Flag) []cli.Flag {
	return append(extra,
		&cli.IntFlag{Name: "horizon", Usage: "periods to project (0 = configured default)"},
		&cli.IntFlag{Name: "samples", Usage: "number of simulated paths (0 = configured default)"},
		&cli.Uint64Flag{Name: "seed", Usage: "random seed (0 = configured default or fresh)"},
		&cli.BoolFlag{Name: "steps", Usage: "include per-step statistics"},
	)
}

func estimateCommand(env *toolEnv) *cli.Command {
	return &cli.Command{
		Name:      "estimate",
		Usage:     "estimate drift and volatility from a stored series",
		ArgsUsage: "<ticker> [metric]",
		Action: func(c *cli.Context) error {
			entity, metric, err := entityMetric(c)
			if err != nil {
				return err
			}
			result, err := env.projection.Estimate(c.Context, entity, metric)
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, result)
		},
	}
}

func simulateCommand(env *toolEnv) *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "simulate from explicit parameters",
		Flags: simulationFlags(
			&cli.Float64Flag{Name: "initial", Usage: "starting value", Required: true},
			&cli.Float64Flag{Name: "drift", Usage: "per-period drift"},
			&cli.Float64Flag{Name: "volatility", Usage: "per-period volatility"},
		),
		Action: func(c *cli.Context) error {
			result, err := env.projection.Simulate(c.Context, &services.SimulationRequest{
				InitialValue: c.Float64("initial"),
				Drift:        c.Float64("drift"),
				Volatility:   c.Float64("volatility"),
				Horizon:      c.Int("horizon"),
				Samples:      c.Int("samples"),
				Seed:         c.Uint64("seed"),
				IncludeSteps: c.Bool("steps"),
			})
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, result)
		},
	}
}

func projectCommand(env *toolEnv) *cli.Command {
	return &cli.Command{
		Name:      "project",
		Usage:     "calibrate from a stored series and simulate forward",
		ArgsUsage: "<ticker> [metric]",
		Flags: simulationFlags(
			&cli.Float64Flag{Name: "drift", Usage: "override estimated drift"},
			&cli.Float64Flag{Name: "volatility", Usage: "override estimated volatility"},
		),
		Action: func(c *cli.Context) error {
			entity, metric, err := entityMetric(c)
			if err != nil {
				return err
			}
			req := &services.ProjectionRequest{
				Entity:       entity,
				Metric:       metric,
				Horizon:      c.Int("horizon"),
				Samples:      c.Int("samples"),
				Seed:         c.Uint64("seed"),
				IncludeSteps: c.Bool("steps"),
			}
			if c.IsSet("drift") {
				v := c.Float64("drift")
				req.Drift = &v
			}
			if c.IsSet("volatility") {
				v := c.Float64("volatility")
				req.Volatility = &v
			}

			result, err := env.projection.Project(c.Context, req)
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, result)
		},
	}
}

func riskCommand(env *toolEnv) *cli.Command {
	return &cli.Command{
		Name:      "risk",
		Usage:     "variability, leverage and growth stability of the configured factors",
		ArgsUsage: "<ticker>",
		Action: func(c *cli.Context) error {
			entity, err := requireArg(c, 0, "ticker")
			if err != nil {
				return err
			}
			report, err := env.analysis.Risk(c.Context, entity)
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, report)
		},
	}
}

func ratiosCommand(env *toolEnv) *cli.Command {
	return &cli.Command{
		Name:      "ratios",
		Usage:     "financial ratios for one period",
		ArgsUsage: "<ticker>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "period", Usage: "fiscal period (0 = latest)"},
		},
		Action: func(c *cli.Context) error {
			entity, err := requireArg(c, 0, "ticker")
			if err != nil {
				return err
			}
			ratios, err := env.analysis.Ratios(c.Context, entity, c.Int("period"))
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, ratios)
		},
	}
}

func trendCommand(env *toolEnv) *cli.Command {
	return &cli.Command{
		Name:      "trend",
		Usage:     "period growth and CAGR of a metric",
		ArgsUsage: "<ticker> [metric]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "periods", Usage: "most recent points to use (0 = configured default)"},
		},
		Action: func(c *cli.Context) error {
			entity, metric, err := entityMetric(c)
			if err != nil {
				return err
			}
			report, err := env.analysis.Trend(c.Context, entity, metric, c.Int("periods"))
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, report)
		},
	}
}

func sectorCommand(env *toolEnv) *cli.Command {
	return &cli.Command{
		Name:      "sector",
		Usage:     "describe a metric across the companies of a sector",
		ArgsUsage: "<sector> [metric]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "period", Usage: "fiscal period (0 = latest)"},
		},
		Action: func(c *cli.Context) error {
			sector, metric, err := entityMetric(c)
			if err != nil {
				return err
			}
			result, err := env.analysis.Sector(c.Context, sector, metric, c.Int("period"))
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, result)
		},
	}
}

func compareCommand(env *toolEnv) *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "head-to-head comparison of two tickers for one period",
		ArgsUsage: "<ticker> <ticker>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "period", Usage: "fiscal period (0 = latest of the first ticker)"},
		},
		Action: func(c *cli.Context) error {
			a, err := requireArg(c, 0, "ticker")
			if err != nil {
				return err
			}
			b, err := requireArg(c, 1, "ticker")
			if err != nil {
				return err
			}
			result, err := env.analysis.Compare(c.Context, a, b, c.Int("period"))
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, result)
		},
	}
}

func screenCommand(env *toolEnv) *cli.Command {
	return &cli.Command{
		Name:      "screen",
		Usage:     "list (ticker, period) pairs matching every condition, e.g. 'revenue > 1000'",
		ArgsUsage: "<condition> [condition...]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "period", Usage: "fiscal period (0 = all)"},
		},
		Action: func(c *cli.Context) error {
			if _, err := requireArg(c, 0, "condition"); err != nil {
				return err
			}
			result, err := env.analysis.Screen(c.Context, c.Args().Slice(), c.Int("period"))
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, result)
		},
	}
}

func companiesCommand(env *toolEnv) *cli.Command {
	return &cli.Command{
		Name:  "companies",
		Usage: "list stored companies",
		Action: func(c *cli.Context) error {
			companies, err := env.repo.ListCompanies(c.Context)
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, companies)
		},
	}
}

func importCommand(env *toolEnv) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "load ticker,period,metric,value[,sector,name] rows from CSV ('-' for stdin)",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			path, err := requireArg(c, 0, "file")
			if err != nil {
				return err
			}

			var src io.Reader = os.Stdin
			if path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				src = f
			}

			result, err := env.repo.ImportCSV(c.Context, src)
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, result)
		},
	}
}

// entityMetric reads "<name> [metric]"; the metric defaults to revenue
func entityMetric(c *cli.Context) (string, string, error) {
	name, err := requireArg(c, 0, "name")
	if err != nil {
		return "", "", err
	}
	metric := c.Args().Get(1)
	if metric == "" {
		metric = storage.MetricRevenue
	}
	return name, metric, nil
}

func requireArg(c *cli.Context, i int, name string) (string, error) {
	v := c.Args().Get(i)
	if v == "" {
		return "", cli.Exit(fmt.Sprintf("missing <%s> argument\nusage: %s %s %s",
			name, c.App.Name, c.Command.Name, c.Command.ArgsUsage), 2)
	}
	return v, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
