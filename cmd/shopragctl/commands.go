package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/shoprag/internal/app"
	"github.com/kailas-cloud/shoprag/internal/config"
	"github.com/kailas-cloud/shoprag/internal/domain/search/filter"
	"github.com/kailas-cloud/shoprag/internal/domain/search/request"
	"github.com/kailas-cloud/shoprag/internal/usecase/intent"
	"github.com/kailas-cloud/shoprag/internal/usecase/query"
)

var errQueryRequired = errors.New("query argument is required")

func queryArg(c *cli.Context) (string, error) {
	q := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if q == "" {
		return "", errQueryRequired
	}
	return q, nil
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("env"))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// withApp builds the retrieval stack for the duration of one command.
func withApp(c *cli.Context, fn func(ctx context.Context, cfg config.Config, a *app.App) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	a, err := app.New(ctx, cfg, loggerFrom(c))
	if err != nil {
		return err //nolint:wrapcheck // app errors carry their own context
	}
	defer a.Close()
	return fn(ctx, cfg, a)
}

func limitOr(c *cli.Context, fallback int) int {
	if c.IsSet("limit") {
		return c.Int("limit")
	}
	return fallback
}

func filterFrom(c *cli.Context) (filter.QueryFilter, error) {
	var opts []filter.Option
	if c.IsSet("max-price") {
		opts = append(opts, filter.WithMaxPrice(c.Float64("max-price")))
	}
	if v := c.String("type"); v != "" {
		opts = append(opts, filter.WithDocumentType(v))
	}
	if v := c.String("category"); v != "" {
		opts = append(opts, filter.WithCategory(v))
	}
	f, err := filter.New(opts...)
	if err != nil {
		return filter.QueryFilter{}, fmt.Errorf("filters: %w", err)
	}
	return f, nil
}

func classifyCommand(c *cli.Context) error {
	q, err := queryArg(c)
	if err != nil {
		return err
	}

	// Custom intent terms apply when a config is readable; otherwise defaults.
	classifier := intent.NewKeywordClassifier()
	if cfg, err := loadConfig(c); err == nil {
		classifier = intent.NewKeywordClassifierWithTerms(
			cfg.Search.Intent.Product, cfg.Search.Intent.Order, cfg.Search.Intent.Support,
		)
	}

	return newPrinter(c).intent(q, classifier.Classify(q), classifier.Scores(q))
}

func searchCommand(c *cli.Context) error {
	q, err := queryArg(c)
	if err != nil {
		return err
	}
	f, err := filterFrom(c)
	if err != nil {
		return err
	}
	return withApp(c, func(ctx context.Context, cfg config.Config, a *app.App) error {
		req, err := request.New(q, limitOr(c, cfg.Search.DefaultLimit), c.StringSlice("collection"), f)
		if err != nil {
			return err //nolint:wrapcheck // domain error
		}
		res, err := a.Query.Search(ctx, req)
		if err != nil {
			return err //nolint:wrapcheck // already wrapped
		}
		return newPrinter(c).results(res)
	})
}

func smartCommand(c *cli.Context) error {
	q, err := queryArg(c)
	if err != nil {
		return err
	}
	return withApp(c, func(ctx context.Context, cfg config.Config, a *app.App) error {
		res, err := a.Query.SmartSearch(ctx, q, limitOr(c, cfg.Search.DefaultLimit))
		if err != nil {
			return err //nolint:wrapcheck // already wrapped
		}
		return newPrinter(c).smart(res)
	})
}

func retrieveCommand(c *cli.Context) error {
	q, err := queryArg(c)
	if err != nil {
		return err
	}
	f, err := filterFrom(c)
	if err != nil {
		return err
	}
	return withApp(c, func(ctx context.Context, _ config.Config, a *app.App) error {
		res, err := a.Query.Retrieve(ctx, q, c.Int("fetch-n"), f)
		if err != nil {
			return err //nolint:wrapcheck // already wrapped
		}
		return newPrinter(c).results(res)
	})
}

func productsCommand(c *cli.Context) error {
	q, err := queryArg(c)
	if err != nil {
		return err
	}
	pq := query.ProductQuery{Query: q, Category: c.String("category")}
	if c.IsSet("min-price") {
		v := c.Float64("min-price")
		pq.MinPrice = &v
	}
	if c.IsSet("max-price") {
		v := c.Float64("max-price")
		pq.MaxPrice = &v
	}
	return withApp(c, func(ctx context.Context, cfg config.Config, a *app.App) error {
		pq.Limit = limitOr(c, cfg.Search.DefaultLimit)
		res, err := a.Query.SearchProducts(ctx, pq)
		if err != nil {
			return err //nolint:wrapcheck // already wrapped
		}
		return newPrinter(c).results(res)
	})
}

func statsCommand(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, _ config.Config, a *app.App) error {
		return newPrinter(c).stats(a.Query.Stats(ctx))
	})
}

func initIndexesCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := loggerFrom(c)
	store, err := app.OpenStore(c.Context, cfg, logger)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped
	}
	defer store.Close()

	statuses, err := app.EnsureIndexes(c.Context, store, cfg, logger)
	if pErr := newPrinter(c).indexes(statuses); pErr != nil && err == nil {
		err = pErr
	}
	return err //nolint:wrapcheck // already wrapped
}
