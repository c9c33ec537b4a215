// Package history keeps an append-only SQLite log of lookup outcomes: which
// class page was requested, how it ended, and how many members came back.
//
// The log never stores the mapping dictionaries and the extractor never
// reads it. It exists to spot markup drift on the site over time (a run of
// marker_not_found rows means the page layout changed).
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hazyhaar/mcmappings/idgen"
	"github.com/hazyhaar/mcmappings/mappings"
)

const schema = `
CREATE TABLE IF NOT EXISTS lookups (
	lookup_id   TEXT PRIMARY KEY,
	class_path  TEXT NOT NULL,
	version     TEXT NOT NULL,
	scheme      TEXT NOT NULL,
	url         TEXT NOT NULL DEFAULT '',
	error_kind  TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	fields      INTEGER NOT NULL DEFAULT 0,
	methods     INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lookups_created ON lookups(created_at);
CREATE INDEX IF NOT EXISTS idx_lookups_error_kind ON lookups(error_kind);
`

// Entry is one recorded lookup.
type Entry struct {
	ID         string `json:"id"`
	ClassPath  string `json:"class_path"`
	Version    string `json:"version"`
	Scheme     string `json:"scheme"`
	URL        string `json:"url,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`
	Fields     int    `json:"fields"`
	Methods    int    `json:"methods"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  int64  `json:"created_at"`
}

// Stats aggregates the log.
type Stats struct {
	Total   int            `json:"total"`
	OK      int            `json:"ok"`
	ByError map[string]int `json:"by_error"`
}

// Log writes lookup outcomes to SQLite.
type Log struct {
	db     *sql.DB
	clock  clockwork.Clock
	newID  idgen.Generator
	logger *slog.Logger
}

// Option configures a Log.
type Option func(*Log)

// WithClock sets the clock used for created_at. Default: real time.
func WithClock(c clockwork.Clock) Option {
	return func(l *Log) { l.clock = c }
}

// WithIDGenerator sets the lookup ID generator. Default: "lkp_" + UUIDv7.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(l *Log) { l.newID = gen }
}

// WithLogger sets a custom logger.
func WithLogger(lg *slog.Logger) Option {
	return func(l *Log) { l.logger = lg }
}

// Open opens (or creates) the history database at path, creating parent
// directories and the lookups table. ":memory:" gives a private in-memory log.
func Open(path string, opts ...Option) (*Log, error) {
	db, err := openDB(path, defaultBusyTimeout)
	if err != nil {
		return nil, err
	}
	return newLog(db, opts...), nil
}

func newLog(db *sql.DB, opts ...Option) *Log {
	l := &Log{
		db:     db,
		clock:  clockwork.NewRealClock(),
		newID:  idgen.Prefixed("lkp_", idgen.UUIDv7()),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record stores e, filling ID and CreatedAt when empty.
func (l *Log) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = l.newID()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = l.clock.Now().Unix()
	}
	err := l.insert(ctx, `
		INSERT INTO lookups (
			lookup_id, class_path, version, scheme, url, error_kind, error,
			fields, methods, duration_ms, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.ClassPath, e.Version, e.Scheme, e.URL, e.ErrorKind, e.Error,
		e.Fields, e.Methods, e.DurationMS, e.CreatedAt)
	if err != nil {
		return e, fmt.Errorf("history: record: %w", err)
	}
	return e, nil
}

// Observe implements mappings.Observer. Errors are logged, never returned:
// a failing history store must not fail lookups.
func (l *Log) Observe(ctx context.Context, o mappings.Outcome) {
	e := Entry{
		ClassPath:  o.ClassPath,
		Version:    o.Version,
		Scheme:     o.Scheme.String(),
		URL:        o.URL,
		ErrorKind:  mappings.ErrorKind(o.Err),
		Fields:     o.Fields,
		Methods:    o.Methods,
		DurationMS: o.Duration.Milliseconds(),
	}
	if o.Err != nil {
		e.Error = o.Err.Error()
	}
	// The request context may already be cancelled; the row is still wanted.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := l.Record(ctx, e); err != nil {
		l.logger.Error("history: observe failed", "error", err, "class", o.ClassPath)
	}
}

// Recent returns the latest entries, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT lookup_id, class_path, version, scheme, url, error_kind, error,
			fields, methods, duration_ms, created_at
		FROM lookups ORDER BY created_at DESC, lookup_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ClassPath, &e.Version, &e.Scheme, &e.URL,
			&e.ErrorKind, &e.Error, &e.Fields, &e.Methods, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats counts lookups by outcome.
func (l *Log) Stats(ctx context.Context) (*Stats, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT error_kind, COUNT(*) FROM lookups GROUP BY error_kind`)
	if err != nil {
		return nil, fmt.Errorf("history: stats: %w", err)
	}
	defer rows.Close()

	st := &Stats{ByError: make(map[string]int)}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		st.Total += n
		if kind == "" {
			st.OK += n
		} else {
			st.ByError[kind] = n
		}
	}
	return st, rows.Err()
}
