// Command shopragctl queries the retrieval engine from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/shoprag/internal/logger"
	"github.com/kailas-cloud/shoprag/internal/version"
)

const loggerKey = "logger"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "shopragctl",
		Usage:   "Query the storefront retrieval engine",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Configuration environment (config/<env>.yaml)",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
		},
		Before: setupLogger,
		After: func(c *cli.Context) error {
			if l, ok := c.App.Metadata[loggerKey].(*zap.Logger); ok {
				_ = l.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "classify",
				Usage:     "Print the intent of a query and the per-intent keyword scores",
				ArgsUsage: "<query>",
				Action:    classifyCommand,
			},
			{
				Name:      "search",
				Usage:     "Weighted search across collections",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append([]cli.Flag{
					limitFlag(),
					&cli.StringSliceFlag{
						Name:    "collection",
						Aliases: []string{"c"},
						Usage:   "Restrict to these collections (repeatable; default: all enabled)",
					},
				}, filterFlags()...),
			},
			{
				Name:      "smart",
				Usage:     "Intent-aware search with rerank boost",
				ArgsUsage: "<query>",
				Action:    smartCommand,
				Flags:     []cli.Flag{limitFlag()},
			},
			{
				Name:      "retrieve",
				Usage:     "Search the default collection with client-side filters",
				ArgsUsage: "<query>",
				Action:    retrieveCommand,
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "fetch-n",
						Usage: "Number of documents to fetch",
						Value: 5,
					},
				}, filterFlags()...),
			},
			{
				Name:      "products",
				Usage:     "Search products by category and price range",
				ArgsUsage: "<query>",
				Action:    productsCommand,
				Flags: []cli.Flag{
					limitFlag(),
					&cli.StringFlag{Name: "category", Usage: "Exact category name"},
					&cli.Float64Flag{Name: "min-price", Usage: "Minimum price"},
					&cli.Float64Flag{Name: "max-price", Usage: "Maximum price"},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show configured collections, availability and document counts",
				Action: statsCommand,
			},
			{
				Name:   "init-indexes",
				Usage:  "Create empty indexes for enabled collections that have none",
				Action: initIndexesCommand,
			},
		},
	}
}

func limitFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Number of results (default: search.default_limit)",
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{Name: "max-price", Usage: "Keep documents priced at or below this value"},
		&cli.StringFlag{Name: "type", Usage: "Keep documents of this type (case-insensitive)"},
		&cli.StringFlag{Name: "category", Usage: "Keep documents in this category"},
	}
}

func setupLogger(c *cli.Context) error {
	logger, err := logpkg.NewLogger("cli", c.String("log-level"))
	if err != nil {
		return err //nolint:wrapcheck // already descriptive
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[loggerKey] = logger
	return nil
}

func loggerFrom(c *cli.Context) *zap.Logger {
	if l, ok := c.App.Metadata[loggerKey].(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
