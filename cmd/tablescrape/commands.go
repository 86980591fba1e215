package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/leofalp/tablescrape/core/config"
	"github.com/leofalp/tablescrape/internal/utils"
	"github.com/leofalp/tablescrape/providers/mcpserver"
	"github.com/leofalp/tablescrape/providers/tool/jsondata"
	"github.com/leofalp/tablescrape/providers/tool/plot"
	"github.com/leofalp/tablescrape/providers/tool/tableextractor"
	"github.com/leofalp/tablescrape/providers/tool/webfetch"
)

func newRootCommand() *cli.Command {
	a := &app{}
	return &cli.Command{
		Name:    "tablescrape",
		Usage:   "extract HTML tables from web pages as CSV or JSON",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML config file (default: " + config.DefaultPath + " when present)",
				Sources: cli.EnvVars("TABLESCRAPE_CONFIG"),
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "dotenv files to load before reading the environment",
				Value: []string{".env"},
			},
			&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "text or json"},
			&cli.StringFlag{Name: "log-file", Usage: "write logs to a rotated file instead of stderr"},
			&cli.IntFlag{Name: "timeout", Usage: "fetch timeout in seconds"},
			&cli.StringFlag{Name: "user-agent", Usage: "User-Agent header sent when fetching"},
			&cli.BoolFlag{Name: "random-user-agent", Usage: "send a random browser User-Agent"},
		},
		Before: a.setup,
		After:  a.teardown,
		Commands: []*cli.Command{
			serveCommand(a),
			extractCommand(a),
			tablesCommand(a),
			jsonToCSVCommand(),
			plotCommand(a),
			fetchCommand(a),
			configCommand(),
		},
	}
}

func serveCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the MCP server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "transport", Aliases: []string{"t"}, Usage: "stdio, sse or http"},
			&cli.StringFlag{Name: "addr", Usage: "listen address for sse and http"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			transportName, addr := a.cfg.Server.Transport, a.cfg.Server.Addr
			if cmd.IsSet("transport") {
				transportName = cmd.String("transport")
			}
			if cmd.IsSet("addr") {
				addr = cmd.String("addr")
			}
			transport, err := mcpserver.ParseTransport(transportName)
			if err != nil {
				return err
			}

			srv, err := mcpserver.New(a.catalog(),
				mcpserver.WithVersion(version),
				mcpserver.WithObserver(a.observer),
				mcpserver.WithInstructions("Call list_tables to find the index of the table you need, then extract_competition_table to get it as CSV or JSON."),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = srv.Serve(ctx, transport, addr)
			a.logger.Info("MCP server stopped", "transport", string(transport))
			return err
		},
	}
}

func extractCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "print one table of a page",
		ArgsUsage: "URL",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "index", Aliases: []string{"i"}, Usage: "zero-based table position in the page"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: tableextractor.FormatCSV, Usage: "csv or json"},
			&cli.StringFlag{Name: "xlsx", Usage: "also write the table to this workbook"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			url, err := requireArg(cmd, "URL")
			if err != nil {
				return err
			}
			format, err := tableextractor.ParseFormat(cmd.String("format"))
			if err != nil {
				return err
			}

			grid, err := tableextractor.New(a.fetcher()).Grid(ctx, url, cmd.Int("index"))
			if err != nil {
				return err
			}

			if path := cmd.String("xlsx"); path != "" {
				if err := writeWorkbook(path, grid); err != nil {
					return err
				}
				a.logger.Info("workbook written", "path", path, "table.rows", grid.Rows())
			}

			out, err := tableextractor.Serialize(grid, format)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.Root().Writer, out)
			if err == nil && format == tableextractor.FormatJSON {
				_, err = fmt.Fprintln(cmd.Root().Writer)
			}
			return err
		},
	}
}

func writeWorkbook(path string, grid tableextractor.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tableextractor.WriteXLSX(f, grid, ""); err != nil {
		utils.CloseWithLog(f)
		return err
	}
	return f.Close()
}

func tablesCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "tables",
		Usage:     "list the tables of a page",
		ArgsUsage: "URL",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			url, err := requireArg(cmd, "URL")
			if err != nil {
				return err
			}
			summaries, err := tableextractor.New(a.fetcher()).Tables(ctx, tableextractor.ListInput{URL: url})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.Root().Writer, utils.JSONToString(summaries, true))
			return err
		},
	}
}

func jsonToCSVCommand() *cli.Command {
	return &cli.Command{
		Name:      "json-to-csv",
		Usage:     "convert a JSON file to CSV",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, "FILE")
			if err != nil {
				return err
			}
			out, err := jsondata.ReadFile(path)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.Root().Writer, out)
			return err
		},
	}
}

func plotCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "plot",
		Usage:     "render CSV as a PNG line or bar chart",
		ArgsUsage: "[FILE]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Value: string(plot.KindLine), Usage: "line or bar"},
			&cli.StringFlag{Name: "x", Required: true, Usage: "column for the X axis"},
			&cli.StringFlag{Name: "y", Required: true, Usage: "numeric column for the Y axis"},
			&cli.StringFlag{Name: "group", Usage: "column splitting the data into series"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "PNG file to write"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			data, err := readInput(cmd)
			if err != nil {
				return err
			}
			media, err := plot.Run(ctx, plot.Input{
				CSVData:  data,
				PlotType: cmd.String("type"),
				XCol:     cmd.String("x"),
				YCol:     cmd.String("y"),
				GroupCol: cmd.String("group"),
				FilePath: cmd.String("output"),
			})
			if err != nil {
				return err
			}
			a.logger.Info("plot written", "path", cmd.String("output"), "bytes", len(media.Data))
			_, err = fmt.Fprintf(cmd.Root().Writer, "%s: %s\n", cmd.String("output"), media.Text)
			return err
		},
	}
}

// readInput reads the FILE argument, or the command's reader when it is absent or "-".
func readInput(cmd *cli.Command) (string, error) {
	path := cmd.Args().First()
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.Root().Reader)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func fetchCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "print a page as Markdown",
		ArgsUsage: "URL",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			url, err := requireArg(cmd, "URL")
			if err != nil {
				return err
			}
			out, err := webfetch.NewWebFetchTool(a.fetcher()).Function(ctx, webfetch.Input{URL: url})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.Root().Writer, out.Markdown)
			return err
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "manage the config file",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "write a config file with the default values",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Value: config.DefaultPath, Usage: "file to write"},
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := cmd.String("path")
					if err := config.WriteExample(path, cmd.Bool("force")); err != nil {
						return err
					}
					_, err := fmt.Fprintf(cmd.Root().Writer, "wrote %s\n", path)
					return err
				},
			},
		},
	}
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	if cmd.NArg() != 1 {
		return "", fmt.Errorf("%s expects exactly one %s argument", cmd.Name, name)
	}
	return cmd.Args().First(), nil
}
