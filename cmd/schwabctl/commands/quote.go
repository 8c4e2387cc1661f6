package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/neusse/schwabctl/internal/app"
)

func quoteCommand() *cli.Command {
	return &cli.Command{
		Name:      "quote",
		Usage:     "fetch quotes for one or more symbols",
		ArgsUsage: "SYMBOL [SYMBOL...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			symbols := cmd.Args().Slice()
			if len(symbols) == 0 {
				return cli.Exit("usage: schwabctl quote SYMBOL [SYMBOL...]", exitGeneric)
			}
			for i, s := range symbols {
				symbols[i] = strings.ToUpper(s)
			}

			cfg, shutdown, err := setup(cmd)
			if err != nil {
				return exitError(err)
			}
			defer func() { _ = shutdown(context.Background()) }()

			client, err := app.NewSession(cfg)
			if err != nil {
				return exitError(err)
			}

			quotes, err := client.Quotes(ctx, symbols)
			if err != nil {
				return exitError(err)
			}

			keys := make([]string, 0, len(quotes))
			for symbol := range quotes {
				keys = append(keys, symbol)
			}
			sort.Strings(keys)

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Symbol", "Last", "Close", "Change", "Change %", "Volume"})
			for _, symbol := range keys {
				q := quotes[symbol]
				t.AppendRow(table.Row{
					q.Symbol,
					q.Last.StringFixed(2),
					q.Close.StringFixed(2),
					q.NetChange.StringFixed(2),
					q.NetPercentChange.StringFixed(2) + "%",
					q.TotalVolume,
				})
			}
			t.SetStyle(table.StyleLight)
			t.Render()

			for _, symbol := range symbols {
				if _, ok := quotes[symbol]; !ok {
					fmt.Printf("no quote returned for %s\n", symbol)
				}
			}
			return nil
		},
	}
}
