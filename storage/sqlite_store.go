package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "modernc.org/sqlite"

	"timetrack/account"
	"timetrack/worklog"
)

// syncChunkSize keeps IN (...) lists well below SQLite's variable limit.
const syncChunkSize = 500

const timestampLayout = time.RFC3339Nano

// ErrOwnerExists is returned by CreateOwner for a taken username.
var ErrOwnerExists = errors.New("owner already exists")

var entryValidator = validator.New()

type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; the HTTP trigger and the startup run share the handle.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'USER',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS time_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	subject TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	date_worked TEXT NOT NULL,
	minutes_worked INTEGER NOT NULL CHECK(minutes_worked > 0),
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_time_entries_dedup
	ON time_entries (user_id, subject, date_worked, minutes_worked);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// FindOwnerByUsername looks up an owner by exact, case-sensitive username.
func (s *SQLiteStore) FindOwnerByUsername(ctx context.Context, username string) (account.Owner, bool, error) {
	const query = `
SELECT id, username, password, role, created_at
FROM users
WHERE username = ?;`

	var (
		owner      account.Owner
		createdRaw string
	)
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&owner.ID,
		&owner.Username,
		&owner.PasswordHash,
		&owner.Role,
		&createdRaw,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account.Owner{}, false, nil
		}
		return account.Owner{}, false, fmt.Errorf("query owner %q: %w", username, err)
	}

	owner.CreatedAt, err = time.Parse(timestampLayout, createdRaw)
	if err != nil {
		return account.Owner{}, false, fmt.Errorf("parse owner created_at %q: %w", createdRaw, err)
	}
	return owner, true, nil
}

// CreateOwner inserts a USER owner with the given password hash.
func (s *SQLiteStore) CreateOwner(ctx context.Context, username, passwordHash string) (account.Owner, error) {
	if strings.TrimSpace(username) == "" {
		return account.Owner{}, fmt.Errorf("owner username must not be blank")
	}

	owner := account.Owner{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         account.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password, role, created_at) VALUES (?, ?, ?, ?);`,
		owner.Username,
		owner.PasswordHash,
		owner.Role,
		owner.CreatedAt.Format(timestampLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return account.Owner{}, fmt.Errorf("%w: %s", ErrOwnerExists, username)
		}
		return account.Owner{}, fmt.Errorf("insert owner %q: %w", username, err)
	}

	owner.ID, err = res.LastInsertId()
	if err != nil {
		return account.Owner{}, fmt.Errorf("read inserted owner id: %w", err)
	}
	return owner, nil
}

// EntryExists reports whether the owner already has an entry with the same
// subject, work date and duration.
func (s *SQLiteStore) EntryExists(ctx context.Context, ownerID int64, subject string, dateWorked time.Time, minutes int) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM time_entries
	WHERE user_id = ? AND subject = ? AND date_worked = ? AND minutes_worked = ?
);`

	var exists int
	if err := s.db.QueryRowContext(ctx, query, ownerID, subject, dateWorked.Format(worklog.DateLayout), minutes).Scan(&exists); err != nil {
		return false, fmt.Errorf("query duplicate entry: %w", err)
	}
	return exists == 1, nil
}

// InsertEntry validates and stores one entry and returns its id. Zero
// timestamps are stamped with the current time.
func (s *SQLiteStore) InsertEntry(ctx context.Context, entry worklog.Entry) (int64, error) {
	if err := entryValidator.Struct(entry); err != nil {
		return 0, fmt.Errorf("invalid time entry: %w", err)
	}

	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}

	const insertStmt = `
INSERT INTO time_entries (
	user_id,
	subject,
	description,
	date_worked,
	minutes_worked,
	created_at,
	updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?);`

	res, err := s.db.ExecContext(ctx,
		insertStmt,
		entry.OwnerID,
		entry.Subject,
		entry.Description,
		entry.DateWorked.Format(worklog.DateLayout),
		entry.MinutesWorked,
		entry.CreatedAt.UTC().Format(timestampLayout),
		entry.UpdatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert time entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted row id: %w", err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid inserted row id %d", id)
	}
	return id, nil
}

// SyncUpdatedAtToCreatedAt sets updated_at = created_at for ids inside a
// single transaction. Either every chunk is applied or none.
func (s *SQLiteStore) SyncUpdatedAtToCreatedAt(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	synced := 0
	for start := 0; start < len(ids); start += syncChunkSize {
		end := min(start+syncChunkSize, len(ids))
		chunk := ids[start:end]

		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		query := `UPDATE time_entries SET updated_at = created_at WHERE id IN (` + placeholders(len(chunk)) + `);`

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sync updated_at: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("read synced row count: %w", err)
		}
		synced += int(rows)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit sync transaction: %w", err)
	}
	return synced, nil
}

// ListEntriesByOwner returns the owner's entries, newest work date first.
func (s *SQLiteStore) ListEntriesByOwner(ctx context.Context, ownerID int64) ([]worklog.Entry, error) {
	const query = `
SELECT id, user_id, subject, description, date_worked, minutes_worked, created_at, updated_at
FROM time_entries
WHERE user_id = ?
ORDER BY date_worked DESC, id DESC;`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query time entries: %w", err)
	}
	defer rows.Close()

	entries := make([]worklog.Entry, 0, 64)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time entries: %w", err)
	}
	return entries, nil
}

// GetEntry returns one entry by id.
func (s *SQLiteStore) GetEntry(ctx context.Context, id int64) (worklog.Entry, bool, error) {
	if id <= 0 {
		return worklog.Entry{}, false, fmt.Errorf("time entry id must be > 0")
	}

	const query = `
SELECT id, user_id, subject, description, date_worked, minutes_worked, created_at, updated_at
FROM time_entries
WHERE id = ?;`

	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return worklog.Entry{}, false, nil
		}
		return worklog.Entry{}, false, err
	}
	return entry, true, nil
}

// CountEntries returns the number of stored entries across all owners.
func (s *SQLiteStore) CountEntries(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM time_entries;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count time entries: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (worklog.Entry, error) {
	var (
		entry      worklog.Entry
		dateRaw    string
		createdRaw string
		updatedRaw string
	)
	if err := row.Scan(
		&entry.ID,
		&entry.OwnerID,
		&entry.Subject,
		&entry.Description,
		&dateRaw,
		&entry.MinutesWorked,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return worklog.Entry{}, err
		}
		return worklog.Entry{}, fmt.Errorf("scan time entry: %w", err)
	}

	var err error
	entry.DateWorked, err = time.ParseInLocation(worklog.DateLayout, dateRaw, time.Local)
	if err != nil {
		return worklog.Entry{}, fmt.Errorf("parse date_worked %q: %w", dateRaw, err)
	}
	entry.CreatedAt, err = time.Parse(timestampLayout, createdRaw)
	if err != nil {
		return worklog.Entry{}, fmt.Errorf("parse created_at %q: %w", createdRaw, err)
	}
	entry.UpdatedAt, err = time.Parse(timestampLayout, updatedRaw)
	if err != nil {
		return worklog.Entry{}, fmt.Errorf("parse updated_at %q: %w", updatedRaw, err)
	}
	return entry, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
