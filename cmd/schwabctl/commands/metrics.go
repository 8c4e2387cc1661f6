package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/neusse/schwabctl/internal/analysis"
	"github.com/neusse/schwabctl/internal/app"
	"github.com/neusse/schwabctl/internal/schwab"
)

func metricsCommand() *cli.Command {
	return &cli.Command{
		Name:      "metrics",
		Usage:     "compute price-series statistics for a symbol",
		ArgsUsage: "SYMBOL",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "days",
				Usage: "trailing window of daily candles",
				Value: 365,
			},
			&cli.FloatFlag{
				Name:  "risk-free",
				Usage: "annual risk-free rate for Sharpe/Sortino",
				Value: 0.04,
			},
		},
		Action: metricsAction,
	}
}

func metricsAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return cli.Exit("usage: schwabctl metrics SYMBOL", exitGeneric)
	}
	symbol := strings.ToUpper(cmd.Args().First())

	cfg, shutdown, err := setup(cmd)
	if err != nil {
		return exitError(err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	client, err := app.NewSession(cfg)
	if err != nil {
		return exitError(err)
	}

	days := int(cmd.Int("days"))
	candles, err := client.PriceHistory(ctx, symbol, days)
	if err != nil {
		return exitError(err)
	}
	closes := closesOf(candles)
	returns := analysis.Returns(closes)
	riskFree := cmd.Float("risk-free")

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Metric", symbol})

	appendMetric := func(name string, value float64, err error) {
		if err != nil {
			t.AppendRow(table.Row{name, "n/a"})
			return
		}
		t.AppendRow(table.Row{name, fmt.Sprintf("%.2f", value)})
	}

	sma20, err20 := analysis.SMA(closes, 20)
	appendMetric("SMA(20)", sma20, err20)
	sma50, err50 := analysis.SMA(closes, 50)
	appendMetric("SMA(50)", sma50, err50)
	rsi, errRSI := analysis.RSI(closes, 14)
	appendMetric("RSI(14)", rsi, errRSI)
	t.AppendRow(table.Row{"Max drawdown", fmt.Sprintf("%.1f%%", analysis.MaxDrawdown(closes)*100)})
	t.AppendRow(table.Row{"Sharpe (ann.)", fmt.Sprintf("%.2f", analysis.Sharpe(returns, riskFree))})
	t.AppendRow(table.Row{"Sortino (ann.)", fmt.Sprintf("%.2f", analysis.Sortino(returns, riskFree))})

	// Benchmark correlation against the reference symbol; skipped when the
	// symbol itself is the benchmark.
	if symbol != app.ReferenceSymbol {
		if bench, err := client.PriceHistory(ctx, app.ReferenceSymbol, days); err == nil {
			benchReturns := analysis.Returns(closesOf(bench))
			if n := min(len(returns), len(benchReturns)); n >= 2 {
				if corr, err := analysis.Correlation(returns[len(returns)-n:], benchReturns[len(benchReturns)-n:]); err == nil {
					t.AppendRow(table.Row{"Corr vs " + app.ReferenceSymbol, fmt.Sprintf("%.2f", corr)})
				}
			}
		}
	}

	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

func closesOf(candles []schwab.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
