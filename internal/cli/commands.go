package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jengzang/popquery-backend-go/internal/api"
	"github.com/jengzang/popquery-backend-go/internal/engine"
	"github.com/jengzang/popquery-backend-go/internal/metrics"
	"github.com/jengzang/popquery-backend-go/internal/middleware"
	"github.com/jengzang/popquery-backend-go/internal/repository"
	"github.com/jengzang/popquery-backend-go/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func addGridFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("rows", 100, "number of latitude bands")
	f.Int("cols", 100, "number of longitude bands")
	f.StringP("variant", "v", string(engine.DefaultVariant), "implementation variant (v1-v5)")
}

func newQueryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query FILE [COLS ROWS]",
		Short: "Answer population queries read from stdin",
		Long: `query loads FILE (a census CSV, or sqlite:NAME for a stored dataset),
builds a COLS x ROWS grid and reads "west south east north" queries
until "quit" or end of input.

Variants:
  v1 simple           scan every record per query
  v2 simple-parallel  v1 with fork-join extent, grid and scan
  v3 smart            binned grid with a summed-area table
  v4 smart-parallel   v3 with fork-join extent and binning
  v5 smart-locked     v3 binned by workers into one shared grid`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				return errors.New("COLS and ROWS must be given together")
			}
			cols, rows := a.cfg.Cols, a.cfg.Rows
			if len(args) == 3 {
				var err error
				if cols, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("invalid COLS %q: %w", args[1], err)
				}
				if rows, err = strconv.Atoi(args[2]); err != nil {
					return fmt.Errorf("invalid ROWS %q: %w", args[2], err)
				}
			}
			variant, err := engine.ParseVariant(a.cfg.Variant)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := a.loadStore(ctx, args[0])
			if err != nil {
				return err
			}
			eng := a.newEngine(store, nil)
			if err := eng.Preprocess(ctx, rows, cols, variant); err != nil {
				return err
			}
			return RunREPL(&queryConsumer{engine: eng, rows: rows, cols: cols, out: a.out}, a.in, a.out)
		},
	}
	addGridFlags(cmd)
	return cmd
}

func newImportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Store a census CSV file in the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := a.cfg.Dataset
			if name == "" {
				return errors.New("--dataset is required")
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			svc := service.NewDatasetService(repository.NewCensusRepository(db))
			store, err := svc.ImportFile(cmd.Context(), name, args[0])
			if err != nil {
				return err
			}
			a.log.Info("imported dataset", zap.String("dataset", name), zap.Int("records", store.Len()))
			fmt.Fprintf(a.out, "imported %d records (population %d) into %s\n", store.Len(), store.TotalPopulation(), name)
			return nil
		},
	}
	cmd.Flags().String("dataset", "", "dataset name")
	return cmd
}

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve population queries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	addGridFlags(cmd)
	f := cmd.Flags()
	f.String("port", ":8080", "listen address")
	f.String("jwt-secret", "", "HS256 secret guarding preprocessing (empty disables auth)")
	f.Int("rate-limit", 600, "requests per minute per client IP (0 disables)")
	f.String("data", "", "census CSV file to serve")
	f.String("dataset", "", "stored dataset to serve")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	var source string
	switch {
	case a.cfg.DataFile != "" && a.cfg.Dataset != "":
		return errors.New("--data and --dataset are mutually exclusive")
	case a.cfg.DataFile != "":
		source = a.cfg.DataFile
	case a.cfg.Dataset != "":
		source = sqlitePrefix + a.cfg.Dataset
	default:
		return errors.New("one of --data or --dataset is required")
	}

	store, err := a.loadStore(ctx, source)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	eng := a.newEngine(store, metrics.New(reg))

	variant, err := engine.ParseVariant(a.cfg.Variant)
	if err != nil {
		return err
	}
	if err := eng.Preprocess(ctx, a.cfg.Rows, a.cfg.Cols, variant); err != nil {
		return err
	}

	deps := api.Deps{Config: a.cfg, Engine: eng, Gatherer: reg, Logger: a.log}
	if a.cfg.Dataset != "" {
		deps.Repo = repository.NewCensusRepository(a.db)
	}
	srv := &http.Server{
		Addr:              a.cfg.Port,
		Handler:           api.SetupRouter(ctx, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info("server starting", zap.String("addr", a.cfg.Port))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	a.log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newTokenCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for the preprocessing endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			token, err := middleware.IssueToken(a.cfg.JWTSecret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
	f := cmd.Flags()
	f.String("jwt-secret", "", "HS256 signing secret")
	f.String("subject", "admin", "token subject")
	f.Duration("ttl", 24*time.Hour, "token lifetime")
	return cmd
}
