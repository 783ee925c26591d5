package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx with database/sql

	"github.com/wellesley-hci/lexi-api/internal/config"
	"github.com/wellesley-hci/lexi-api/internal/platform/logger"
	"github.com/wellesley-hci/lexi-api/internal/platform/postgres"
	"github.com/wellesley-hci/lexi-api/internal/runlock"
	"github.com/wellesley-hci/lexi-api/internal/sched"
	"github.com/wellesley-hci/lexi-api/internal/schema"
)

// lockDirDatabase selects the database-backed run registry instead of lock
// files, for deployments with more than one scheduler instance.
const lockDirDatabase = "database"

// app holds the wired application graph shared by all subcommands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB

	workspaces *postgres.WorkspaceStore
	users      *postgres.UserStore
	responses  *postgres.ResponseStore
	columns    *postgres.ColumnStore

	registrar *schema.Registrar
	locks     runlock.Registry

	pool     *sched.PoolGenerator
	assigner *sched.Assigner
	sweeper  *sched.Sweeper
}

// newApp loads configuration, connects to the database and wires the stores
// and jobs. The caller owns the returned app and must Close it.
func newApp(configFile string) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Setup(cfg.Server.LogLevel)

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	workspaces := postgres.NewWorkspaceStore(db)
	users := postgres.NewUserStore(db)
	responses := postgres.NewResponseStore(db)
	columns := postgres.NewColumnStore(db)

	registrar := schema.NewRegistrar(db, columns, log)

	var locks runlock.Registry
	if cfg.Scheduler.LockDir == lockDirDatabase {
		locks = runlock.NewStoreRegistry(postgres.NewRunLockStore(db))
	} else {
		locks, err = runlock.NewFileRegistry(cfg.Scheduler.LockDir)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize lock directory: %w", err)
		}
	}

	policy, err := sched.NewPolicy(cfg.Scheduler.Policy, cfg.Scheduler.ProximityBonus, time.Now().UnixNano())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &app{
		cfg:        cfg,
		logger:     log,
		db:         db,
		workspaces: workspaces,
		users:      users,
		responses:  responses,
		columns:    columns,
		registrar:  registrar,
		locks:      locks,
		pool:       sched.NewPoolGenerator(workspaces, responses, columns, locks, cfg.Scheduler, log),
		assigner:   sched.NewAssigner(workspaces, responses, users, columns, locks, policy, cfg.Scheduler, log),
		sweeper:    sched.NewSweeper(workspaces, responses, cfg.Scheduler, log),
	}, nil
}

// Close releases the database connection pool.
func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}
