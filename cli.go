package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/yumyai/unirefcmp/internal/config"
	"github.com/yumyai/unirefcmp/logger"
	"github.com/yumyai/unirefcmp/pkg/db"
	"github.com/yumyai/unirefcmp/pkg/handler"
	"github.com/yumyai/unirefcmp/pkg/middle"
	"github.com/yumyai/unirefcmp/pkg/model"
	"github.com/yumyai/unirefcmp/pkg/uniprot"
)

const shutdownTimeout = 10 * time.Second

// newCLIApp creates the CLI application with all commands.
func newCLIApp(cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "unirefcmp",
		Usage:   "Compare UniProt proteins through their UniRef50 clusters",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "base-url", Value: cfg.BaseURL, Usage: "UniProt base URL"},
			&cli.StringFlag{Name: "data", Value: cfg.DataDir, Usage: "Data directory for the job ledger and downloads"},
			&cli.IntFlag{Name: "max-attempts", Value: cfg.MaxAttempts, Usage: "Attempts per request before giving up"},
			&cli.DurationFlag{Name: "backoff", Value: cfg.BackoffUnit, Usage: "Wait unit between attempts (attempt * unit)"},
		},
		Before: func(c *cli.Context) error {
			cfg.BaseURL = c.String("base-url")
			cfg.DataDir = c.String("data")
			cfg.BackoffUnit = c.Duration("backoff")
			cfg.MaxAttempts = c.Int("max-attempts")
			if cfg.MaxAttempts < 1 {
				return cli.Exit("--max-attempts must be positive", 1)
			}
			return nil
		},
		Commands: []*cli.Command{
			serveCmd(cfg),
			compareCmd(cfg),
			mapCmd(cfg),
			queryCmd(cfg),
			jobsCmd(cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func newClient(cfg *config.Config) *uniprot.Client {
	tr := uniprot.NewTransport(&http.Client{Timeout: cfg.HTTPTimeout})
	tr.MaxAttempts = cfg.MaxAttempts
	tr.BackoffUnit = cfg.BackoffUnit
	return uniprot.NewClient(cfg.BaseURL, tr)
}

// openJobs opens the job ledger under the data directory. With no data
// directory the ledger lives in memory for this run only.
func openJobs(cfg *config.Config) (*db.JobStore, func(), error) {
	var (
		conn *sql.DB
		err  error
	)
	if cfg.DataDir == "" {
		logger.Warn("No data directory, job ledger kept in memory")
		conn, err = db.OpenMemory()
	} else {
		conn, err = db.Open(cfg.JobDBDir())
	}
	if err != nil {
		return nil, nil, err
	}
	return db.NewJobStore(conn), func() { conn.Close() }, nil
}

// serveCmd runs the HTTP server until interrupted.
func serveCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the comparison API and pages",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Aliases: []string{"l"}, Value: cfg.ListenAddr, Usage: "Listen address"},
		},
		Action: func(c *cli.Context) error {
			jobs, closeJobs, err := openJobs(cfg)
			if err != nil {
				return outputError(err)
			}
			defer closeJobs()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			appctx := &handler.AppContext{
				Client:      newClient(cfg),
				Jobs:        jobs,
				DownloadDir: cfg.DownloadDir(),
				BaseCtx:     ctx,
			}

			log := logger.L()
			srv := &http.Server{
				Addr:    c.String("listen"),
				Handler: middle.Chain(NewRouter(appctx), middle.RequestIDMiddleware(log), middle.LoggingMiddleware(log)),
			}

			logger.Info("Start:", zap.String("Version", Version))
			logger.Info("Open job ledger on", zap.String("DB_LOC", cfg.JobDBDir()))
			logger.Info("Server starting", zap.String("addr", srv.Addr), zap.String("base_url", cfg.BaseURL))

			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Error starting server:", zap.String("error message", err.Error()))
					return outputError(err)
				}
			case <-ctx.Done():
				logger.Info("Shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Shutdown", zap.Error(err))
				}
			}

			appctx.Wait()
			return nil
		},
	}
}

// compareCmd resolves two identifiers and reports their clusters.
func compareCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Compare two proteins through their UniRef50 clusters",
		ArgsUsage: "<id-a> <id-b>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "members", Aliases: []string{"m"}, Usage: "Fetch the members of both clusters"},
			&cli.BoolFlag{Name: "sequences", Usage: "Include member sequences in the output"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("compare needs exactly two identifiers", 1)
			}

			comparison, err := model.NewComparison(c.Context, newClient(cfg),
				c.Args().Get(0), c.Args().Get(1), c.Bool("members"))
			if err != nil {
				return outputError(err)
			}
			if c.Bool("sequences") && !comparison.WithMembers() {
				logger.Warn("--sequences has no effect without --members")
			}

			return outputJSON(c.App.Writer, comparison.Summary(c.Bool("sequences")))
		},
	}
}

// mapCmd sends one raw mapping request.
func mapCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "map",
		Usage: "Map identifiers between databases",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Required: true, Usage: "Identifiers, whitespace separated"},
			&cli.StringFlag{Name: "from", Value: uniprot.DBAccession, Usage: "Source database code"},
			&cli.StringFlag{Name: "to", Value: uniprot.DBAccession, Usage: "Target database code"},
			&cli.StringFlag{Name: "format", Value: uniprot.FormatFasta, Usage: "Response format"},
			&cli.StringFlag{Name: "columns", Usage: "Columns for tabular formats"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write the response to this file"},
		},
		Action: func(c *cli.Context) error {
			req := uniprot.MappingRequest{
				Query:       c.String("query"),
				From:        c.String("from"),
				To:          c.String("to"),
				Format:      c.String("format"),
				Columns:     c.String("columns"),
				Destination: c.String("out"),
			}
			client := newClient(cfg)

			if req.Destination != "" {
				path, err := client.MapIdentifiersToFile(c.Context, req)
				if err != nil {
					return outputError(err)
				}
				fmt.Fprintln(c.App.Writer, path)
				return nil
			}

			raw, err := client.MapIdentifiers(c.Context, req)
			if err != nil {
				return outputError(err)
			}
			fmt.Fprint(c.App.Writer, raw)
			return nil
		},
	}
}

// queryCmd downloads a bulk query and records it in the job ledger.
func queryCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "Download the result of a UniProtKB query",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Query text, empty matches everything"},
			&cli.StringFlag{Name: "format", Value: uniprot.FormatList, Usage: "Result format"},
			&cli.StringFlag{Name: "columns", Usage: "Columns for tabular formats"},
			&cli.BoolFlag{Name: "include", Usage: "Include isoforms"},
			&cli.BoolFlag{Name: "compress", Usage: "Ask for a gzip compressed result"},
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of entries, 0 for no limit"},
			&cli.IntFlag{Name: "offset", Usage: "Entries to skip"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Destination file (default: a new file under the download directory)"},
		},
		Action: func(c *cli.Context) error {
			q := uniprot.QueryRequest{
				Query:           c.String("query"),
				Format:          c.String("format"),
				Columns:         c.String("columns"),
				IncludeIsoforms: c.Bool("include"),
				Compress:        c.Bool("compress"),
				Limit:           c.Int("limit"),
				Offset:          c.Int("offset"),
			}
			if err := q.Validate(); err != nil {
				return outputError(err)
			}

			jobs, closeJobs, err := openJobs(cfg)
			if err != nil {
				return outputError(err)
			}
			defer closeJobs()

			appctx := &handler.AppContext{
				Client:      newClient(cfg),
				Jobs:        jobs,
				DownloadDir: cfg.DownloadDir(),
			}

			var job *db.Job
			dest := c.String("out")
			if dest != "" {
				job, err = jobs.NewJob(c.Context, appctx.Client.QueryURL(q), dest)
			} else {
				id := uuid.NewString()
				dest = filepath.Join(appctx.DownloadDir, handler.DownloadFileName(id, q))
				job, err = jobs.CreateJob(c.Context, id, appctx.Client.QueryURL(q), dest)
			}
			if err != nil {
				return outputError(err)
			}

			runErr := appctx.RunQuery(c.Context, job.ID, q, dest)

			done, err := jobs.GetJob(context.WithoutCancel(c.Context), job.ID)
			if err != nil {
				return outputError(err)
			}
			if err := outputJSON(c.App.Writer, done); err != nil {
				return err
			}
			if runErr != nil {
				return outputError(runErr)
			}
			return nil
		},
	}
}

// jobsCmd lists recorded downloads, newest first.
func jobsCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "List recorded query downloads",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum number of jobs"},
		},
		Action: func(c *cli.Context) error {
			jobs, closeJobs, err := openJobs(cfg)
			if err != nil {
				return outputError(err)
			}
			defer closeJobs()

			list, err := jobs.ListJobs(c.Context, c.Int("limit"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, list)
		},
	}
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	return cli.Exit(err.Error(), 1)
}
