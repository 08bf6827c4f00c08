package session

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore provides SQLite-backed persistence for sessions.
type SQLiteStore struct {
	db   *sql.DB
	opts Options
}

// NewSQLiteStore opens the SQLite database at dbPath and creates tables if they don't exist.
func NewSQLiteStore(dbPath string, opts Options) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStore{db: db, opts: opts}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		user_id TEXT PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		phase TEXT NOT NULL,
		item_index INTEGER NOT NULL DEFAULT 0,
		pending_option TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		completed_at DATETIME,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS answers (
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		option TEXT NOT NULL,
		remark TEXT NOT NULL,
		PRIMARY KEY (session_id, position),
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Get retrieves the session for userID. Returns nil, nil when absent.
func (s *SQLiteStore) Get(userID string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, display_name, phase, item_index, pending_option, created_at, completed_at, updated_at
		 FROM sessions WHERE user_id = ?`,
		userID,
	)

	var (
		sess      Session
		phase     string
		index     int
		pending   string
		completed sql.NullTime
	)
	err := row.Scan(&sess.ID, &sess.UserID, &sess.DisplayName, &phase, &index, &pending, &sess.CreatedAt, &completed, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if completed.Valid {
		sess.CompletedAt = completed.Time
	}

	sess.State, err = decodeState(Phase(phase), index, pending)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", userID, err)
	}

	sess.Answers, err = s.getAnswers(sess.ID)
	if err != nil {
		return nil, err
	}

	return &sess, nil
}

func (s *SQLiteStore) getAnswers(sessionID string) ([]Answer, error) {
	rows, err := s.db.Query(
		`SELECT option, remark FROM answers WHERE session_id = ? ORDER BY position ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var answers []Answer
	for rows.Next() {
		var ans Answer
		if err := rows.Scan(&ans.Option, &ans.Remark); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, ans)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return answers, nil
}

// Create inserts a fresh session, replacing any prior one for userID along
// with its answers.
func (s *SQLiteStore) Create(userID string, at time.Time) (*Session, error) {
	sess := New(userID, s.opts.RequireName, at)
	if err := s.Put(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Put replaces the stored session and its answers in one transaction.
func (s *SQLiteStore) Put(sess *Session) error {
	if sess == nil || sess.UserID == "" {
		return ErrNilSession
	}

	phase, index, pending := encodeState(sess.State)
	var completed sql.NullTime
	if !sess.CompletedAt.IsZero() {
		completed = sql.NullTime{Time: sess.CompletedAt, Valid: true}
	}
	updated := sess.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// A new session id for the same user replaces the old run entirely.
	if _, err := tx.Exec(`DELETE FROM sessions WHERE user_id = ? AND id <> ?`, sess.UserID, sess.ID); err != nil {
		return fmt.Errorf("delete previous session: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO sessions (user_id, id, display_name, phase, item_index, pending_option, created_at, completed_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   display_name = excluded.display_name,
		   phase = excluded.phase,
		   item_index = excluded.item_index,
		   pending_option = excluded.pending_option,
		   created_at = excluded.created_at,
		   completed_at = excluded.completed_at,
		   updated_at = excluded.updated_at`,
		sess.UserID, sess.ID, sess.DisplayName, string(phase), index, pending, sess.CreatedAt, completed, updated,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM answers WHERE session_id = ?`, sess.ID); err != nil {
		return fmt.Errorf("clear answers: %w", err)
	}
	for i, ans := range sess.Answers {
		if _, err := tx.Exec(
			`INSERT INTO answers (session_id, position, option, remark) VALUES (?, ?, ?, ?)`,
			sess.ID, i, ans.Option, ans.Remark,
		); err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Remove deletes the session for userID and, through the cascade, its answers.
func (s *SQLiteStore) Remove(userID string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RemoveCreatedBefore deletes sessions created before cutoff.
func (s *SQLiteStore) RemoveCreatedBefore(cutoff time.Time) ([]string, error) {
	rows, err := s.db.Query(`SELECT user_id FROM sessions WHERE created_at < ? ORDER BY user_id`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query stale sessions: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	_ = rows.Close()

	for _, id := range ids {
		if err := s.Remove(id); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// List returns summaries of the most recently updated sessions.
func (s *SQLiteStore) List(limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT s.user_id, s.display_name, s.phase, s.created_at, s.updated_at,
		        COALESCE(COUNT(a.position), 0) AS answered
		 FROM sessions s
		 LEFT JOIN answers a ON s.id = a.session_id
		 GROUP BY s.user_id
		 ORDER BY s.updated_at DESC, s.user_id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []Summary
	for rows.Next() {
		var (
			sum   Summary
			phase string
		)
		if err := rows.Scan(&sum.UserID, &sum.DisplayName, &phase, &sum.CreatedAt, &sum.UpdatedAt, &sum.Answered); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.Phase = Phase(phase)
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return summaries, nil
}

func encodeState(st State) (Phase, int, string) {
	switch v := st.(type) {
	case AwaitingAnswer:
		return PhaseAwaitingAnswer, v.Index, ""
	case AwaitingRemark:
		return PhaseAwaitingRemark, v.Index, v.Option
	case Completed:
		return PhaseCompleted, 0, ""
	default:
		return PhaseAwaitingName, 0, ""
	}
}

func decodeState(phase Phase, index int, pending string) (State, error) {
	switch phase {
	case PhaseAwaitingName:
		return AwaitingName{}, nil
	case PhaseAwaitingAnswer:
		return AwaitingAnswer{Index: index}, nil
	case PhaseAwaitingRemark:
		return AwaitingRemark{Index: index, Option: pending}, nil
	case PhaseCompleted:
		return Completed{}, nil
	default:
		return nil, fmt.Errorf("unknown phase %q", phase)
	}
}
