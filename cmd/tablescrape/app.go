package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/leofalp/tablescrape/core/config"
	"github.com/leofalp/tablescrape/internal/utils"
	slogobs "github.com/leofalp/tablescrape/providers/observability/slog"
	"github.com/leofalp/tablescrape/providers/tool"
	"github.com/leofalp/tablescrape/providers/tool/jsondata"
	"github.com/leofalp/tablescrape/providers/tool/plot"
	"github.com/leofalp/tablescrape/providers/tool/tableextractor"
	"github.com/leofalp/tablescrape/providers/tool/webfetch"
)

// app carries what the root command's Before hook resolves for subcommands.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	logCloser io.Closer
	observer  *slogobs.Observer
}

// setup loads .env and the config file, applies flag overrides and builds the logger.
func (a *app) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := config.LoadDotEnv(cmd.StringSlice("env-file")...); err != nil {
		return ctx, err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return ctx, err
	}
	applyFlags(&cfg, cmd)
	if err := cfg.Validate(); err != nil {
		return ctx, err
	}
	a.cfg = cfg

	a.logger, a.logCloser = slogobs.NewLogger(slogobs.LoggerOptions{
		Level:      slogobs.ParseLogLevel(cfg.Log.Level),
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Output:     cmd.Root().ErrWriter,
	})
	slog.SetDefault(a.logger)
	a.observer = slogobs.New(a.logger)

	a.logger.Debug("configuration loaded",
		"transport", cfg.Server.Transport,
		"log.level", slogobs.LogLevelString(slogobs.ParseLogLevel(cfg.Log.Level)),
		"fetch.timeout", cfg.FetchTimeout().String(),
	)
	return ctx, nil
}

// loadConfig reads the config file, except for the config subcommands: those
// write the file and must work even when the existing one does not parse.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	if cmd.Args().First() != "config" {
		return config.Load(cmd.String("config"))
	}
	cfg := config.Default()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return config.Default(), nil
	}
	return cfg, nil
}

func (a *app) teardown(ctx context.Context, cmd *cli.Command) error {
	utils.CloseWithLog(a.logCloser)
	return nil
}

// applyFlags lets explicitly set flags win over file and environment values.
func applyFlags(cfg *config.Config, cmd *cli.Command) {
	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		cfg.Log.Format = cmd.String("log-format")
	}
	if cmd.IsSet("log-file") {
		cfg.Log.File = cmd.String("log-file")
	}
	if cmd.IsSet("timeout") {
		cfg.Fetch.TimeoutSeconds = cmd.Int("timeout")
	}
	if cmd.IsSet("user-agent") {
		cfg.Fetch.UserAgent = cmd.String("user-agent")
	}
	if cmd.IsSet("random-user-agent") {
		cfg.Fetch.RandomUserAgent = cmd.Bool("random-user-agent")
	}
}

func (a *app) fetcher() *webfetch.HTTPFetcher {
	return webfetch.NewHTTPFetcher(
		webfetch.WithTimeout(a.cfg.FetchTimeout()),
		webfetch.WithMaxBodySize(a.cfg.Fetch.MaxBodyBytes),
		webfetch.WithUserAgent(a.cfg.Fetch.UserAgent),
		webfetch.WithRandomUserAgent(a.cfg.Fetch.RandomUserAgent),
	)
}

func (a *app) catalog() *tool.Catalog {
	fetcher := a.fetcher()
	return tool.NewCatalogWithTools(
		tableextractor.NewTableExtractorTool(fetcher),
		tableextractor.NewListTablesTool(fetcher),
		jsondata.NewJSONDataTool(),
		plot.NewPlotTool(),
		webfetch.NewWebFetchTool(fetcher),
	)
}
