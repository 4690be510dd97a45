package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/openclaw/missionctl/internal/model"
)

// Column lists used for SELECT statements, one per table.
const (
	agentColumns   = `id, name, board_id, session_key, token_hash, last_seen_at, created_at, updated_at`
	boardColumns   = `id, gateway_id, name, created_at, updated_at`
	gatewayColumns = `id, name, url, token, main_session_key, created_at, updated_at`
	messageColumns = `id, board_id, agent_id, content, is_chat, created_at`
	taskColumns    = `id, board_id, agent_id, title, description, status, position, created_at, updated_at`
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Agents

func queryCreateAgent(ctx context.Context, db executor, a *model.Agent) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO agents (id, name, board_id, session_key, token_hash, last_seen_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID,
		a.Name,
		nullStringPtr(a.BoardID),
		nullStringPtr(a.SessionKey),
		nullStringPtr(a.TokenHash),
		nullTimePtr(a.LastSeenAt),
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

func queryGetAgent(ctx context.Context, db executor, id string) (*model.Agent, error) {
	row := db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id)
	return scanAgent(row)
}

func queryListAgents(ctx context.Context, db executor, boardID string) ([]*model.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents`
	var args []any
	if boardID != "" {
		query += ` WHERE board_id = $1`
		args = append(args, boardID)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()
	return scanAgents(rows)
}

func queryListAgentsByBoards(ctx context.Context, db executor, boardIDs []string) ([]*model.Agent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+agentColumns+` FROM agents
		WHERE board_id = ANY($1)
		ORDER BY created_at ASC`,
		pq.Array(boardIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("list agents by boards: %w", err)
	}
	defer rows.Close()
	return scanAgents(rows)
}

func queryFindAgentBySessionKey(ctx context.Context, db executor, sessionKey string) (*model.Agent, error) {
	row := db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE session_key = $1`, sessionKey)
	a, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func queryFindAgentByName(ctx context.Context, db executor, name string) (*model.Agent, error) {
	row := db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE name = $1`, name)
	a, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func queryUpdateAgent(ctx context.Context, db executor, a *model.Agent) error {
	res, err := db.ExecContext(ctx, `
		UPDATE agents
		SET name = $2, board_id = $3, session_key = $4, updated_at = $5
		WHERE id = $1`,
		a.ID,
		a.Name,
		nullStringPtr(a.BoardID),
		nullStringPtr(a.SessionKey),
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func queryDeleteAgent(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func querySetAgentTokenHash(ctx context.Context, db executor, agentID, tokenHash string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE agents SET token_hash = $2, updated_at = now() WHERE id = $1`,
		agentID, tokenHash)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func queryTouchAgentLastSeen(ctx context.Context, db executor, agentID string, at time.Time) error {
	res, err := db.ExecContext(ctx, `
		UPDATE agents SET last_seen_at = $2, updated_at = $2 WHERE id = $1`,
		agentID, at)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func queryListAgentsWithTokens(ctx context.Context, db executor) ([]*model.Agent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+agentColumns+` FROM agents
		WHERE token_hash IS NOT NULL
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list agents with tokens: %w", err)
	}
	defer rows.Close()
	return scanAgents(rows)
}

// Boards

func queryCreateBoard(ctx context.Context, db executor, b *model.Board) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO boards (id, gateway_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.GatewayID, b.Name, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

func queryGetBoard(ctx context.Context, db executor, id string) (*model.Board, error) {
	row := db.QueryRowContext(ctx, `SELECT `+boardColumns+` FROM boards WHERE id = $1`, id)
	return scanBoard(row)
}

func queryListBoards(ctx context.Context, db executor) ([]*model.Board, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+boardColumns+` FROM boards ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()
	return scanBoards(rows)
}

func queryListBoardsByGateway(ctx context.Context, db executor, gatewayID string) ([]*model.Board, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+boardColumns+` FROM boards
		WHERE gateway_id = $1
		ORDER BY created_at ASC`,
		gatewayID)
	if err != nil {
		return nil, fmt.Errorf("list boards by gateway: %w", err)
	}
	defer rows.Close()
	return scanBoards(rows)
}

func queryDeleteBoard(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// queryPausedBoardIDs resolves pause state from the message stream. DISTINCT
// ON keeps only the newest command row per board, so earlier commands never
// influence the outcome.
func queryPausedBoardIDs(ctx context.Context, db executor, boardIDs []string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT ON (board_id) board_id, lower(btrim(content)) AS command
		FROM board_messages
		WHERE board_id = ANY($1)
		  AND is_chat
		  AND lower(btrim(content)) IN ('/pause', '/resume')
		ORDER BY board_id, created_at DESC`,
		pq.Array(boardIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("paused board ids: %w", err)
	}
	defer rows.Close()

	paused := make(map[string]bool)
	for rows.Next() {
		var boardID, command string
		if err := rows.Scan(&boardID, &command); err != nil {
			return nil, err
		}
		if command == model.PauseCommand {
			paused[boardID] = true
		}
	}
	return paused, rows.Err()
}

// Board messages

func queryCreateBoardMessage(ctx context.Context, db executor, m *model.BoardMessage) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO board_messages (id, board_id, agent_id, content, is_chat, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.BoardID, nullStringPtr(m.AgentID), m.Content, m.IsChat, m.CreatedAt,
	)
	return err
}

func queryListBoardMessages(ctx context.Context, db executor, boardID string, limit int) ([]*model.BoardMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM board_messages WHERE board_id = $1 ORDER BY created_at DESC`
	args := []any{boardID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list board messages: %w", err)
	}
	defer rows.Close()
	return scanBoardMessages(rows)
}

// Gateways

func queryCreateGateway(ctx context.Context, db executor, g *model.Gateway) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO gateways (id, name, url, token, main_session_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.ID, g.Name, g.URL, g.Token, g.MainSessionKey, g.CreatedAt, g.UpdatedAt,
	)
	return err
}

func queryGetGateway(ctx context.Context, db executor, id string) (*model.Gateway, error) {
	row := db.QueryRowContext(ctx, `SELECT `+gatewayColumns+` FROM gateways WHERE id = $1`, id)
	return scanGateway(row)
}

func queryListGateways(ctx context.Context, db executor) ([]*model.Gateway, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+gatewayColumns+` FROM gateways ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list gateways: %w", err)
	}
	defer rows.Close()
	return scanGateways(rows)
}

func queryUpdateGateway(ctx context.Context, db executor, g *model.Gateway) error {
	res, err := db.ExecContext(ctx, `
		UPDATE gateways
		SET name = $2, url = $3, token = $4, main_session_key = $5, updated_at = $6
		WHERE id = $1`,
		g.ID, g.Name, g.URL, g.Token, g.MainSessionKey, g.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func queryDeleteGateway(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM gateways WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Tasks

func queryCreateTask(ctx context.Context, db executor, t *model.Task) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks (id, board_id, agent_id, title, description, status, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID,
		t.BoardID,
		nullStringPtr(t.AgentID),
		t.Title,
		t.Description,
		string(t.Status),
		t.Position,
		t.CreatedAt,
		t.UpdatedAt,
	)
	return err
}

func queryGetTask(ctx context.Context, db executor, id string) (*model.Task, error) {
	row := db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

func queryListTasks(ctx context.Context, db executor, filter model.TaskFilter) ([]*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var (
		clauses []string
		args    []any
	)
	nextArg := func() string {
		return fmt.Sprintf("$%d", len(args)+1)
	}

	if filter.BoardID != "" {
		clauses = append(clauses, "board_id = "+nextArg())
		args = append(args, filter.BoardID)
	}
	if filter.AgentID != "" {
		clauses = append(clauses, "agent_id = "+nextArg())
		args = append(args, filter.AgentID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = "+nextArg())
		args = append(args, string(filter.Status))
	}
	for i, c := range clauses {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += ` ORDER BY position ASC, created_at ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func queryUpdateTask(ctx context.Context, db executor, t *model.Task) error {
	res, err := db.ExecContext(ctx, `
		UPDATE tasks
		SET board_id = $2, agent_id = $3, title = $4, description = $5, status = $6, position = $7, updated_at = $8
		WHERE id = $1`,
		t.ID,
		t.BoardID,
		nullStringPtr(t.AgentID),
		t.Title,
		t.Description,
		string(t.Status),
		t.Position,
		t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func queryDeleteTask(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow converts a zero-rows-affected update or delete into
// sql.ErrNoRows so callers can distinguish "missing" from "failed".
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
