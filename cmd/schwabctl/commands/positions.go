package commands

import (
	"context"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"

	"github.com/neusse/schwabctl/internal/app"
	"github.com/neusse/schwabctl/internal/schwab"
)

func positionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "positions",
		Usage: "list consolidated positions across all linked accounts",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, shutdown, err := setup(cmd)
			if err != nil {
				return exitError(err)
			}
			defer func() { _ = shutdown(context.Background()) }()

			client, err := app.NewSession(cfg)
			if err != nil {
				return exitError(err)
			}

			accounts, err := client.Accounts(ctx)
			if err != nil {
				return exitError(err)
			}

			renderPositions(accounts)
			return nil
		},
	}
}

// consolidated is one symbol summed across accounts.
type consolidated struct {
	symbol      string
	quantity    decimal.Decimal
	marketValue decimal.Decimal
	dayPL       decimal.Decimal
}

func renderPositions(accounts []schwab.Account) {
	bySymbol := map[string]*consolidated{}
	totalValue := decimal.Zero
	totalDayPL := decimal.Zero

	for _, account := range accounts {
		for _, p := range account.Positions {
			c, ok := bySymbol[p.Symbol]
			if !ok {
				c = &consolidated{symbol: p.Symbol}
				bySymbol[p.Symbol] = c
			}
			c.quantity = c.quantity.Add(p.Quantity)
			c.marketValue = c.marketValue.Add(p.MarketValue)
			c.dayPL = c.dayPL.Add(p.DayProfitLoss)
			totalValue = totalValue.Add(p.MarketValue)
			totalDayPL = totalDayPL.Add(p.DayProfitLoss)
		}
	}

	symbols := make([]string, 0, len(bySymbol))
	for symbol := range bySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Symbol", "Quantity", "Market Value", "Day P/L"})
	for _, symbol := range symbols {
		c := bySymbol[symbol]
		t.AppendRow(table.Row{
			c.symbol,
			c.quantity.String(),
			c.marketValue.StringFixed(2),
			c.dayPL.StringFixed(2),
		})
	}
	t.AppendFooter(table.Row{"TOTAL", "", totalValue.StringFixed(2), totalDayPL.StringFixed(2)})
	t.SetStyle(table.StyleLight)
	t.Render()
}
