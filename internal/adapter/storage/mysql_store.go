package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/condo-market/internal/port"
)

// MySQL error numbers that signal a conflicting concurrent transaction.
const (
	erLockDeadlock    = 1213
	erLockWaitTimeout = 1205
)

const txMaxAttempts = 3

// MySQLStore implements the document store over a single documents
// table: one row per path, JSON payload, collection column for queries.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (m *MySQLStore) Get(ctx context.Context, path string) (port.Document, error) {
	var raw json.RawMessage
	err := m.db.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE path = ?`, path,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return port.Document{}, port.ErrNotFound
	}
	if err != nil {
		return port.Document{}, fmt.Errorf("query document: %w", err)
	}
	return newDocument(path, raw), nil
}

func (m *MySQLStore) Set(ctx context.Context, path string, data any, merge bool) error {
	collection, err := collectionOf(path)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	query := `
		INSERT INTO documents (path, collection, doc)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE doc = VALUES(doc)`
	if merge {
		query = `
		INSERT INTO documents (path, collection, doc)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE doc = JSON_MERGE_PATCH(doc, VALUES(doc))`
	}
	if _, err := m.db.ExecContext(ctx, query, path, collection, payload); err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	return nil
}

func (m *MySQLStore) Update(ctx context.Context, path string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal patch: %w", err)
	}

	result, err := m.db.ExecContext(ctx, `
		UPDATE documents SET doc = JSON_MERGE_PATCH(doc, ?)
		WHERE path = ?`, patch, path)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// RowsAffected is also 0 when the patch changed nothing, so
		// confirm the row is really missing.
		var one int
		err := m.db.QueryRowContext(ctx,
			`SELECT 1 FROM documents WHERE path = ?`, path).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return port.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check document: %w", err)
		}
	}
	return nil
}

func (m *MySQLStore) Delete(ctx context.Context, path string) error {
	if _, err := m.db.ExecContext(ctx,
		`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Query filters compare JSON fields as strings, which covers the id and
// status fields this application queries on.
func (m *MySQLStore) Query(ctx context.Context, collection string, filters ...port.Filter) ([]port.Document, error) {
	query := `SELECT path, doc FROM documents WHERE collection = ?`
	args := []any{collection}

	for _, f := range filters {
		op, err := sqlOp(f.Op)
		if err != nil {
			return nil, err
		}
		if !validField(f.Field) {
			return nil, fmt.Errorf("invalid filter field %q", f.Field)
		}
		query += fmt.Sprintf(" AND JSON_UNQUOTE(JSON_EXTRACT(doc, '$.%s')) %s ?", f.Field, op)
		args = append(args, fmt.Sprint(f.Value))
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}
	defer rows.Close()

	var docs []port.Document
	for rows.Next() {
		var path string
		var raw json.RawMessage
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, newDocument(path, raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// RunTransaction executes fn over a SQL transaction whose reads take
// row locks, retrying up to txMaxAttempts times when MySQL reports a
// deadlock or lock wait timeout. Errors from fn itself are returned
// as-is and never retried.
func (m *MySQLStore) RunTransaction(ctx context.Context, fn func(tx port.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < txMaxAttempts; attempt++ {
		err := m.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("transaction retries exhausted: %w", lastErr)
}

func (m *MySQLStore) runOnce(ctx context.Context, fn func(tx port.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&mysqlTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (m *MySQLStore) ServerTime(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := m.db.QueryRowContext(ctx, `SELECT CURRENT_TIMESTAMP(6)`).Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("server time: %w", err)
	}
	return now, nil
}

type mysqlTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *mysqlTx) Get(path string) (port.Document, error) {
	var raw json.RawMessage
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT doc FROM documents WHERE path = ? FOR UPDATE`, path,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return port.Document{}, port.ErrNotFound
	}
	if err != nil {
		return port.Document{}, fmt.Errorf("query document: %w", err)
	}
	return newDocument(path, raw), nil
}

func (t *mysqlTx) Set(path string, data any) error {
	collection, err := collectionOf(path)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = t.tx.ExecContext(t.ctx, `
		INSERT INTO documents (path, collection, doc)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE doc = VALUES(doc)`,
		path, collection, payload)
	if err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	return nil
}

func (t *mysqlTx) Update(path string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal patch: %w", err)
	}
	result, err := t.tx.ExecContext(t.ctx, `
		UPDATE documents SET doc = JSON_MERGE_PATCH(doc, ?)
		WHERE path = ?`, patch, path)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		var one int
		err := t.tx.QueryRowContext(t.ctx,
			`SELECT 1 FROM documents WHERE path = ? FOR UPDATE`, path).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return port.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check document: %w", err)
		}
	}
	return nil
}

func newDocument(path string, raw json.RawMessage) port.Document {
	return port.Document{
		ID:   path[strings.LastIndex(path, "/")+1:],
		Path: path,
		Data: raw,
	}
}

func collectionOf(path string) (string, error) {
	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return "", fmt.Errorf("invalid document path %q", path)
	}
	return path[:i], nil
}

func sqlOp(op string) (string, error) {
	switch op {
	case "==":
		return "=", nil
	case "!=":
		return "<>", nil
	case "<", "<=", ">", ">=":
		return op, nil
	}
	return "", fmt.Errorf("unsupported filter op %q", op)
}

func validField(field string) bool {
	for _, r := range field {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return field != ""
}

func retryable(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == erLockDeadlock || myErr.Number == erLockWaitTimeout
	}
	return false
}
