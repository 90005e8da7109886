package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jengzang/popquery-backend-go/internal/census"
	"github.com/jengzang/popquery-backend-go/internal/config"
	"github.com/jengzang/popquery-backend-go/internal/database"
	"github.com/jengzang/popquery-backend-go/internal/engine"
	"github.com/jengzang/popquery-backend-go/internal/logger"
	"github.com/jengzang/popquery-backend-go/internal/metrics"
	"github.com/jengzang/popquery-backend-go/internal/repository"
	"github.com/jengzang/popquery-backend-go/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// sqlitePrefix marks a data source naming a stored dataset instead of a file
const sqlitePrefix = "sqlite:"

// app holds what every subcommand shares
type app struct {
	v   *viper.Viper
	cfg *config.Config
	log *zap.Logger

	in      io.Reader
	out     io.Writer
	db      *sql.DB
	closers []io.Closer
}

// newRoot builds the popquery command tree
func newRoot() (*cobra.Command, *app) {
	a := &app{v: config.New(), in: os.Stdin, out: os.Stdout}

	root := &cobra.Command{
		Use:   "popquery",
		Short: "Population queries over a gridded census",
		Long: `popquery loads census block groups (population, latitude, longitude),
partitions their bounding box into a rows x cols grid and answers
rectangular population queries over grid cells.

Configuration can be given in a file (--config), as flags or as
environment variables named POPQUERY_<KEY>, for example POPQUERY_DB_PATH.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup(cmd) },
	}
	root.SetIn(a.in)
	root.SetOut(a.out)

	pf := root.PersistentFlags()
	pf.String("config", "", "configuration file")
	pf.String("db-path", "./data/census.db", "SQLite database path")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-path", "stderr", "log file, stdout, stderr or /dev/null")
	pf.String("log-mode", "append", "log file mode (append, truncate, rotate)")
	pf.Bool("dev", false, "development logging")
	pf.Int("cutoff", 1000, "fork-join sequential cutoff")
	pf.Int("workers", 0, "worker goroutines for the partitioned variant (0 = GOMAXPROCS)")
	pf.Int("cache-size", 1024, "query result cache entries (0 disables)")
	bindFlags(a.v, pf)

	root.AddCommand(
		newQueryCommand(a),
		newImportCommand(a),
		newServeCommand(a),
		newTokenCommand(a),
	)
	return root, a
}

// Execute runs the root command and releases whatever it opened. Failures
// of either are printed to stderr.
func Execute() error {
	root, a := newRoot()
	return execute(root, a, os.Stderr)
}

// execute runs root and reports its error, or the error releasing what it
// opened, on stderr
func execute(root *cobra.Command, a *app, stderr io.Writer) error {
	err := multierr.Append(root.Execute(), a.close())
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return err
}

// bindFlags binds every flag in fs to the viper key with dashes replaced
// by underscores.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
}

func (a *app) setup(cmd *cobra.Command) error {
	bindFlags(a.v, cmd.Flags())
	a.in = cmd.InOrStdin()
	a.out = cmd.OutOrStdout()

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	var lc logger.Config
	if lc.Level, err = zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if err := lc.Mode.Set(cfg.LogMode); err != nil {
		return err
	}
	lc.Path = cfg.LogPath
	lc.DevMode = cfg.DevMode
	if a.log, err = logger.New(lc); err != nil {
		return err
	}
	return nil
}

func (a *app) close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i].Close())
	}
	a.closers = nil
	if a.log != nil {
		a.log.Sync()
	}
	return err
}

// openDB opens the configured database and applies pending migrations
func (a *app) openDB() (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := database.Open(database.Config{Path: a.cfg.DBPath, Logger: a.log})
	if err != nil {
		return nil, err
	}
	if err := database.NewMigrationManager(db, a.log).Migrate(); err != nil {
		return nil, multierr.Append(err, db.Close())
	}
	a.db = db
	a.closers = append(a.closers, db)
	return db, nil
}

// loadStore reads census records from a CSV file or, for "sqlite:NAME",
// from the stored dataset NAME.
func (a *app) loadStore(ctx context.Context, source string) (*census.Store, error) {
	name, ok := strings.CutPrefix(source, sqlitePrefix)
	if !ok {
		store, err := census.LoadFile(source)
		if err != nil {
			return nil, err
		}
		a.log.Info("loaded census file", zap.String("path", source), zap.Int("records", store.Len()))
		return store, nil
	}

	db, err := a.openDB()
	if err != nil {
		return nil, err
	}
	store, err := service.NewDatasetService(repository.NewCensusRepository(db)).Load(ctx, name)
	if err != nil {
		return nil, err
	}
	a.log.Info("loaded census dataset", zap.String("dataset", name), zap.Int("records", store.Len()))
	return store, nil
}

// newEngine builds an engine over store with the configured tuning
func (a *app) newEngine(store *census.Store, m *metrics.Collector) *engine.Engine {
	return engine.New(store,
		engine.WithCutoff(a.cfg.Cutoff),
		engine.WithWorkers(a.cfg.Workers),
		engine.WithCacheSize(a.cfg.CacheSize),
		engine.WithLogger(a.log),
		engine.WithMetrics(m),
	)
}
