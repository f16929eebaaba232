package main

import (
	"context"
	"errors"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/gffbss/hamster-cli/config"
)

// Applicator defines the interface for the core application logic.
// This allows the CLI to be tested independently of the main app implementation.
type Applicator interface {
	Start(ctx context.Context, cfgPath, raw, start, end string) error
	Stop(ctx context.Context, cfgPath string) error
	Cancel(ctx context.Context, cfgPath string) error
	Current(ctx context.Context, cfgPath string, watch bool) error
	Search(ctx context.Context, cfgPath, term, timeRange string) error
	List(ctx context.Context, cfgPath, timeRange string) error
	Activities(ctx context.Context, cfgPath, term string) error
	Categories(ctx context.Context, cfgPath, term string) error
	Details(ctx context.Context, cfgPath string) error
}

// BuildCLI creates the full CLI command structure for the application.
// It injects the core application logic (the Applicator) into the command actions.
func BuildCLI(app Applicator) *cli.Command {
	// Every command takes the configuration file.
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   config.DefaultPath(),
		Usage:   "path to the configuration file",
	}

	// joinedArgs joins the positional arguments, so that raw facts and time
	// ranges need not be quoted.
	joinedArgs := func(c *cli.Command) string {
		return strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	}

	startCmd := &cli.Command{
		Name:      "start",
		Usage:     "Start or add a fact, such as '10:00-12:30 coding@work #go, notes'",
		ArgsUsage: "RAW_FACT",
		Flags: []cli.Flag{
			configFlag,
			&cli.StringFlag{Name: "start", Aliases: []string{"s"}, Usage: "start time (format: '2006-01-02 15:04')"},
			&cli.StringFlag{Name: "end", Aliases: []string{"e"}, Usage: "end time (format: '2006-01-02 15:04')"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			raw := joinedArgs(c)
			if raw == "" {
				return errors.New("a raw fact is required")
			}
			return app.Start(ctx, c.String("config"), raw, c.String("start"), c.String("end"))
		},
	}

	stopCmd := &cli.Command{
		Name:  "stop",
		Usage: "Stop tracking the ongoing fact",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Stop(ctx, c.String("config"))
		},
	}

	cancelCmd := &cli.Command{
		Name:  "cancel",
		Usage: "Cancel the ongoing fact without saving it",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Cancel(ctx, c.String("config"))
		},
	}

	currentCmd := &cli.Command{
		Name:  "current",
		Usage: "Show the ongoing fact",
		Flags: []cli.Flag{
			configFlag,
			&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "show the ongoing fact again after each change"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Current(ctx, c.String("config"), c.Bool("watch"))
		},
	}

	searchCmd := &cli.Command{
		Name:      "search",
		Usage:     "Search facts by activity, category or description",
		ArgsUsage: "TERM",
		Flags: []cli.Flag{
			configFlag,
			&cli.StringFlag{Name: "time", Aliases: []string{"t"}, Usage: "limit to a time range such as '2015-12-12 - 2015-12-14'"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			term := joinedArgs(c)
			if term == "" {
				return errors.New("a search term is required")
			}
			return app.Search(ctx, c.String("config"), term, c.String("time"))
		},
	}

	listCmd := &cli.Command{
		Name:      "list",
		Usage:     "List facts within a time range, by default today",
		ArgsUsage: "[RANGE]",
		Flags:     []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.List(ctx, c.String("config"), joinedArgs(c))
		},
	}

	activitiesCmd := &cli.Command{
		Name:      "activities",
		Usage:     "List activities and their categories",
		ArgsUsage: "[TERM]",
		Flags:     []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Activities(ctx, c.String("config"), joinedArgs(c))
		},
	}

	categoriesCmd := &cli.Command{
		Name:      "categories",
		Usage:     "List categories",
		ArgsUsage: "[TERM]",
		Flags:     []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Categories(ctx, c.String("config"), joinedArgs(c))
		},
	}

	detailsCmd := &cli.Command{
		Name:  "details",
		Usage: "Show the configuration and storage in use",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Details(ctx, c.String("config"))
		},
	}

	// Assemble the root command.
	rootCmd := &cli.Command{
		Name:  "hamster-cli",
		Usage: "A command line time tracker",
		Commands: []*cli.Command{
			startCmd, stopCmd, cancelCmd, currentCmd, searchCmd,
			listCmd, activitiesCmd, categoriesCmd, detailsCmd,
		},
	}

	return rootCmd
}
