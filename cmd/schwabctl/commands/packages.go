package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/neusse/schwabctl/internal/pkgcheck"
)

func packageCheckerCommand() *cli.Command {
	return &cli.Command{
		Name:  "package-checker",
		Usage: "list the binary's dependencies, optionally checking for newer versions",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "update",
				Aliases: []string{"u"},
				Usage:   "query the module proxy for the latest published versions",
			},
			&cli.StringFlag{
				Name:  "proxy",
				Usage: "module proxy base URL",
				Value: pkgcheck.DefaultProxyURL,
			},
		},
		Action: packageCheckerAction,
	}
}

func packageCheckerAction(ctx context.Context, cmd *cli.Command) error {
	modules, err := pkgcheck.Installed()
	if err != nil {
		return cli.Exit(err.Error(), exitGeneric)
	}

	checkLatest := cmd.Bool("update")
	if checkLatest {
		checker := pkgcheck.NewChecker(cmd.String("proxy"))
		for _, lookupErr := range checker.CheckLatest(ctx, modules) {
			fmt.Fprintf(os.Stderr, "lookup failed: %v\n", lookupErr)
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	if checkLatest {
		t.AppendHeader(table.Row{"Module", "Built With", "Latest", ""})
	} else {
		t.AppendHeader(table.Row{"Module", "Built With"})
	}

	stale := 0
	for _, m := range modules {
		if checkLatest {
			marker := ""
			if m.Stale() {
				marker = "update available"
				stale++
			}
			t.AppendRow(table.Row{m.Path, m.Version, m.Latest, marker})
		} else {
			t.AppendRow(table.Row{m.Path, m.Version})
		}
	}
	t.SetStyle(table.StyleLight)
	t.Render()

	if checkLatest {
		fmt.Printf("%d of %d modules have newer versions.\n", stale, len(modules))
	}
	return nil
}
