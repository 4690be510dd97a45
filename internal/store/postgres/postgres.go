// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/openclaw/missionctl/internal/model"
	"github.com/openclaw/missionctl/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateAgent(ctx context.Context, agent *model.Agent) error {
	return queryCreateAgent(ctx, s.db, agent)
}

func (s *PostgresStore) GetAgent(ctx context.Context, id string) (*model.Agent, error) {
	return queryGetAgent(ctx, s.db, id)
}

func (s *PostgresStore) ListAgents(ctx context.Context, boardID string) ([]*model.Agent, error) {
	return queryListAgents(ctx, s.db, boardID)
}

func (s *PostgresStore) ListAgentsByBoards(ctx context.Context, boardIDs []string) ([]*model.Agent, error) {
	return queryListAgentsByBoards(ctx, s.db, boardIDs)
}

func (s *PostgresStore) FindAgentBySessionKey(ctx context.Context, sessionKey string) (*model.Agent, error) {
	return queryFindAgentBySessionKey(ctx, s.db, sessionKey)
}

func (s *PostgresStore) FindAgentByName(ctx context.Context, name string) (*model.Agent, error) {
	return queryFindAgentByName(ctx, s.db, name)
}

func (s *PostgresStore) UpdateAgent(ctx context.Context, agent *model.Agent) error {
	return queryUpdateAgent(ctx, s.db, agent)
}

func (s *PostgresStore) DeleteAgent(ctx context.Context, id string) error {
	return queryDeleteAgent(ctx, s.db, id)
}

func (s *PostgresStore) SetAgentTokenHash(ctx context.Context, agentID, tokenHash string) error {
	return querySetAgentTokenHash(ctx, s.db, agentID, tokenHash)
}

func (s *PostgresStore) TouchAgentLastSeen(ctx context.Context, agentID string, at time.Time) error {
	return queryTouchAgentLastSeen(ctx, s.db, agentID, at)
}

func (s *PostgresStore) ListAgentsWithTokens(ctx context.Context) ([]*model.Agent, error) {
	return queryListAgentsWithTokens(ctx, s.db)
}

func (s *PostgresStore) CreateBoard(ctx context.Context, board *model.Board) error {
	return queryCreateBoard(ctx, s.db, board)
}

func (s *PostgresStore) GetBoard(ctx context.Context, id string) (*model.Board, error) {
	return queryGetBoard(ctx, s.db, id)
}

func (s *PostgresStore) ListBoards(ctx context.Context) ([]*model.Board, error) {
	return queryListBoards(ctx, s.db)
}

func (s *PostgresStore) ListBoardsByGateway(ctx context.Context, gatewayID string) ([]*model.Board, error) {
	return queryListBoardsByGateway(ctx, s.db, gatewayID)
}

func (s *PostgresStore) DeleteBoard(ctx context.Context, id string) error {
	return queryDeleteBoard(ctx, s.db, id)
}

func (s *PostgresStore) PausedBoardIDs(ctx context.Context, boardIDs []string) (map[string]bool, error) {
	return queryPausedBoardIDs(ctx, s.db, boardIDs)
}

func (s *PostgresStore) CreateBoardMessage(ctx context.Context, msg *model.BoardMessage) error {
	return queryCreateBoardMessage(ctx, s.db, msg)
}

func (s *PostgresStore) ListBoardMessages(ctx context.Context, boardID string, limit int) ([]*model.BoardMessage, error) {
	return queryListBoardMessages(ctx, s.db, boardID, limit)
}

func (s *PostgresStore) CreateGateway(ctx context.Context, gw *model.Gateway) error {
	return queryCreateGateway(ctx, s.db, gw)
}

func (s *PostgresStore) GetGateway(ctx context.Context, id string) (*model.Gateway, error) {
	return queryGetGateway(ctx, s.db, id)
}

func (s *PostgresStore) ListGateways(ctx context.Context) ([]*model.Gateway, error) {
	return queryListGateways(ctx, s.db)
}

func (s *PostgresStore) UpdateGateway(ctx context.Context, gw *model.Gateway) error {
	return queryUpdateGateway(ctx, s.db, gw)
}

func (s *PostgresStore) DeleteGateway(ctx context.Context, id string) error {
	return queryDeleteGateway(ctx, s.db, id)
}

func (s *PostgresStore) CreateTask(ctx context.Context, task *model.Task) error {
	return queryCreateTask(ctx, s.db, task)
}

func (s *PostgresStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return queryGetTask(ctx, s.db, id)
}

func (s *PostgresStore) ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error) {
	return queryListTasks(ctx, s.db, filter)
}

func (s *PostgresStore) UpdateTask(ctx context.Context, task *model.Task) error {
	return queryUpdateTask(ctx, s.db, task)
}

func (s *PostgresStore) DeleteTask(ctx context.Context, id string) error {
	return queryDeleteTask(ctx, s.db, id)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateAgent(ctx context.Context, agent *model.Agent) error {
	return queryCreateAgent(ctx, s.tx, agent)
}

func (s *txStore) GetAgent(ctx context.Context, id string) (*model.Agent, error) {
	return queryGetAgent(ctx, s.tx, id)
}

func (s *txStore) ListAgents(ctx context.Context, boardID string) ([]*model.Agent, error) {
	return queryListAgents(ctx, s.tx, boardID)
}

func (s *txStore) ListAgentsByBoards(ctx context.Context, boardIDs []string) ([]*model.Agent, error) {
	return queryListAgentsByBoards(ctx, s.tx, boardIDs)
}

func (s *txStore) FindAgentBySessionKey(ctx context.Context, sessionKey string) (*model.Agent, error) {
	return queryFindAgentBySessionKey(ctx, s.tx, sessionKey)
}

func (s *txStore) FindAgentByName(ctx context.Context, name string) (*model.Agent, error) {
	return queryFindAgentByName(ctx, s.tx, name)
}

func (s *txStore) UpdateAgent(ctx context.Context, agent *model.Agent) error {
	return queryUpdateAgent(ctx, s.tx, agent)
}

func (s *txStore) DeleteAgent(ctx context.Context, id string) error {
	return queryDeleteAgent(ctx, s.tx, id)
}

func (s *txStore) SetAgentTokenHash(ctx context.Context, agentID, tokenHash string) error {
	return querySetAgentTokenHash(ctx, s.tx, agentID, tokenHash)
}

func (s *txStore) TouchAgentLastSeen(ctx context.Context, agentID string, at time.Time) error {
	return queryTouchAgentLastSeen(ctx, s.tx, agentID, at)
}

func (s *txStore) ListAgentsWithTokens(ctx context.Context) ([]*model.Agent, error) {
	return queryListAgentsWithTokens(ctx, s.tx)
}

func (s *txStore) CreateBoard(ctx context.Context, board *model.Board) error {
	return queryCreateBoard(ctx, s.tx, board)
}

func (s *txStore) GetBoard(ctx context.Context, id string) (*model.Board, error) {
	return queryGetBoard(ctx, s.tx, id)
}

func (s *txStore) ListBoards(ctx context.Context) ([]*model.Board, error) {
	return queryListBoards(ctx, s.tx)
}

func (s *txStore) ListBoardsByGateway(ctx context.Context, gatewayID string) ([]*model.Board, error) {
	return queryListBoardsByGateway(ctx, s.tx, gatewayID)
}

func (s *txStore) DeleteBoard(ctx context.Context, id string) error {
	return queryDeleteBoard(ctx, s.tx, id)
}

func (s *txStore) PausedBoardIDs(ctx context.Context, boardIDs []string) (map[string]bool, error) {
	return queryPausedBoardIDs(ctx, s.tx, boardIDs)
}

func (s *txStore) CreateBoardMessage(ctx context.Context, msg *model.BoardMessage) error {
	return queryCreateBoardMessage(ctx, s.tx, msg)
}

func (s *txStore) ListBoardMessages(ctx context.Context, boardID string, limit int) ([]*model.BoardMessage, error) {
	return queryListBoardMessages(ctx, s.tx, boardID, limit)
}

func (s *txStore) CreateGateway(ctx context.Context, gw *model.Gateway) error {
	return queryCreateGateway(ctx, s.tx, gw)
}

func (s *txStore) GetGateway(ctx context.Context, id string) (*model.Gateway, error) {
	return queryGetGateway(ctx, s.tx, id)
}

func (s *txStore) ListGateways(ctx context.Context) ([]*model.Gateway, error) {
	return queryListGateways(ctx, s.tx)
}

func (s *txStore) UpdateGateway(ctx context.Context, gw *model.Gateway) error {
	return queryUpdateGateway(ctx, s.tx, gw)
}

func (s *txStore) DeleteGateway(ctx context.Context, id string) error {
	return queryDeleteGateway(ctx, s.tx, id)
}

func (s *txStore) CreateTask(ctx context.Context, task *model.Task) error {
	return queryCreateTask(ctx, s.tx, task)
}

func (s *txStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return queryGetTask(ctx, s.tx, id)
}

func (s *txStore) ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error) {
	return queryListTasks(ctx, s.tx, filter)
}

func (s *txStore) UpdateTask(ctx context.Context, task *model.Task) error {
	return queryUpdateTask(ctx, s.tx, task)
}

func (s *txStore) DeleteTask(ctx context.Context, id string) error {
	return queryDeleteTask(ctx, s.tx, id)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
