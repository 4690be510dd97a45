package postgres

import (
	"database/sql"
	"time"

	"github.com/openclaw/missionctl/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanAgent scans a single row into a model.Agent.
// The row must contain columns in the order defined by agentColumns.
func scanAgent(row scannable) (*model.Agent, error) {
	var a model.Agent
	var (
		boardID    sql.NullString
		sessionKey sql.NullString
		tokenHash  sql.NullString
		lastSeenAt sql.NullTime
	)

	err := row.Scan(
		&a.ID,
		&a.Name,
		&boardID,
		&sessionKey,
		&tokenHash,
		&lastSeenAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.BoardID = strPtrFromNull(boardID)
	a.SessionKey = strPtrFromNull(sessionKey)
	a.TokenHash = strPtrFromNull(tokenHash)
	if lastSeenAt.Valid {
		t := lastSeenAt.Time
		a.LastSeenAt = &t
	}
	return &a, nil
}

func scanAgents(rows *sql.Rows) ([]*model.Agent, error) {
	var agents []*model.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return agents, nil
}

func scanBoard(row scannable) (*model.Board, error) {
	var b model.Board
	err := row.Scan(&b.ID, &b.GatewayID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBoards(rows *sql.Rows) ([]*model.Board, error) {
	var boards []*model.Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return boards, nil
}

func scanGateway(row scannable) (*model.Gateway, error) {
	var g model.Gateway
	err := row.Scan(&g.ID, &g.Name, &g.URL, &g.Token, &g.MainSessionKey, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func scanGateways(rows *sql.Rows) ([]*model.Gateway, error) {
	var gws []*model.Gateway
	for rows.Next() {
		g, err := scanGateway(rows)
		if err != nil {
			return nil, err
		}
		gws = append(gws, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return gws, nil
}

func scanBoardMessage(row scannable) (*model.BoardMessage, error) {
	var m model.BoardMessage
	var agentID sql.NullString
	err := row.Scan(&m.ID, &m.BoardID, &agentID, &m.Content, &m.IsChat, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.AgentID = strPtrFromNull(agentID)
	return &m, nil
}

func scanBoardMessages(rows *sql.Rows) ([]*model.BoardMessage, error) {
	var msgs []*model.BoardMessage
	for rows.Next() {
		m, err := scanBoardMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}

func scanTask(row scannable) (*model.Task, error) {
	var t model.Task
	var agentID sql.NullString
	err := row.Scan(
		&t.ID,
		&t.BoardID,
		&agentID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Position,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.AgentID = strPtrFromNull(agentID)
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]*model.Task, error) {
	var tasks []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// nullTimePtr converts a *time.Time to a sql.NullTime.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullStringPtr converts a *string to sql.NullString; nil is null.
func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// strPtrFromNull converts a sql.NullString back to a *string.
func strPtrFromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
