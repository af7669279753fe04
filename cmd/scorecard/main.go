package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"scorecard-tracker/internal/config"
	"scorecard-tracker/internal/constants"
	fxmodules "scorecard-tracker/internal/fx"
	"scorecard-tracker/internal/logger"
	"scorecard-tracker/internal/server"
	"scorecard-tracker/internal/service"
	"scorecard-tracker/internal/sink"
)

func main() {
	app := &cli.App{
		Name:  "scorecard",
		Usage: "extract scoreboard screenshots into a persistent leaderboard",
		Commands: []*cli.Command{
			processCommand(),
			serveCommand(),
			diagnoseCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func processCommand() *cli.Command {
	return &cli.Command{
		Name:      "process",
		Usage:     "process screenshot files into the leaderboard",
		ArgsUsage: "[images...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "folder", Aliases: []string{"f"}, Usage: "process all images in a folder"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output CSV filename"},
			&cli.StringFlag{Name: "xlsx", Usage: "also write an XLSX export to this path"},
			&cli.BoolFlag{Name: "no-sheets", Usage: "skip the leaderboard sink export"},
			&cli.BoolFlag{Name: "no-duplicates", Usage: "disable duplicate image detection"},
		},
		Action: func(c *cli.Context) error {
			var (
				proc *service.Processor
				db   *sql.DB
			)
			// Construction failures (missing extraction credentials, broken
			// database) abort here, before any image is touched.
			fxApp := fx.New(
				fxmodules.Module,
				fx.NopLogger,
				fx.Populate(&proc, &db),
			)
			if err := fxApp.Start(c.Context); err != nil {
				return err
			}
			defer func() {
				_ = fxApp.Stop(context.Background())
				_ = db.Close()
			}()

			ctx, cancel := context.WithTimeout(c.Context, constants.RequestTimeout)
			defer cancel()

			report, err := proc.Run(ctx, service.RunOptions{
				Images:                c.Args().Slice(),
				Folder:                c.String("folder"),
				OutputCSV:             c.String("output"),
				OutputXLSX:            c.String("xlsx"),
				SkipSink:              c.Bool("no-sheets"),
				DisableDuplicateCheck: c.Bool("no-duplicates"),
			})
			if err != nil {
				if errors.Is(err, service.ErrNoImages) {
					return fmt.Errorf("%w (pass image paths or --folder)", err)
				}
				return err
			}

			printReport(report)
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the screenshot upload API",
		Action: func(*cli.Context) error {
			fx.New(
				fxmodules.Module,
				fx.Invoke(runServer),
			).Run()
			return nil
		},
	}
}

func runServer(
	lc fx.Lifecycle,
	srv *server.Server,
	cfg *config.Config,
	db *sql.DB,
	log zerolog.Logger,
) {
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: srv.Handler(),
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info().Str("addr", httpSrv.Addr).Msg("server starting")
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			log.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing database connection")
			}

			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			log.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}

func diagnoseCommand() *cli.Command {
	return &cli.Command{
		Name:  "diagnose",
		Usage: "verify the Google Sheets leaderboard setup",
		Action: func(c *cli.Context) error {
			log := logger.New()
			cfg, err := config.Load(log)
			if err != nil {
				return err
			}
			log = logger.WithLevel(log, cfg.LogLevel)

			if !cfg.SheetsConfigured() {
				return errors.New("google sheets not configured: set GOOGLE_SHEET_ID and GOOGLE_SHEETS_CREDENTIALS_FILE")
			}

			ctx, cancel := context.WithTimeout(c.Context, constants.ExternalAPITimeout)
			defer cancel()

			snk, err := sink.NewSheetsSink(ctx, cfg, log)
			if err != nil {
				return err
			}
			title, err := snk.Diagnose(ctx)
			if err != nil {
				return err
			}
			records, err := snk.Read(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("spreadsheet %q reachable, worksheet %q holds %d players\n",
				title, cfg.WorksheetName, len(records))
			return nil
		},
	}
}

func printReport(report *service.RunReport) {
	fmt.Printf("processed %d/%d images (%d duplicates, %d failed)\n",
		report.ImagesProcessed, report.ImagesFound, report.ImagesDuplicate, report.ImagesFailed)
	fmt.Printf("merged %d entries, skipped %d empty and %d placeholder usernames\n",
		report.Merge.EntriesMerged, report.Merge.SkippedEmpty, report.Merge.SkippedPlaceholder)
	fmt.Printf("leaderboard: %d players (%d new, %d updated)\n",
		report.PlayersTotal, report.Merge.PlayersNew, report.Merge.PlayersUpdated)
	if report.CSVPath != "" {
		fmt.Printf("flat export: %s\n", report.CSVPath)
	}
	if report.CSVError != "" {
		fmt.Printf("flat export FAILED: %s\n", report.CSVError)
	}
	if report.XLSXPath != "" {
		fmt.Printf("xlsx export: %s\n", report.XLSXPath)
	}
	if report.SinkName != "" {
		if report.SinkError != "" {
			fmt.Printf("sink (%s) FAILED: %s\n", report.SinkName, report.SinkError)
		} else {
			fmt.Printf("sink (%s): updated\n", report.SinkName)
		}
	}

	if len(report.Top) > 0 {
		fmt.Println("\ntop players:")
		for i, rec := range report.Top {
			fmt.Printf("%2d. %-20s K/D: %5.2f  games: %d\n",
				i+1, rec.DisplayUsername, rec.KDRatio(), rec.GamesPlayed)
		}
	}
}
