package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// memoryPath opens a private in-memory log.
const memoryPath = ":memory:"

const defaultBusyTimeout = 10 * time.Second

// insertBackoff is the wait before each retry of a busy insert.
var insertBackoff = []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}

// openDB opens the lookups database. Pragmas travel in the DSN so the
// driver applies them to every pooled connection, not only the first.
func openDB(path string, busyTimeout time.Duration) (*sql.DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("history: mkdir: %w", err)
		}
	}

	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")

	db, err := sql.Open("sqlite", path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	if path == memoryPath {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: schema: %w", err)
	}
	return db, nil
}

// isBusy reports whether err is SQLITE_BUSY or one of its extended codes.
func isBusy(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_BUSY
}

// insert runs an INSERT, retrying on SQLITE_BUSY after the driver's own
// busy timeout has expired. Waits go through the log's clock.
func (l *Log) insert(ctx context.Context, query string, args ...any) error {
	for attempt := 0; ; attempt++ {
		_, err := l.db.ExecContext(ctx, query, args...)
		if err == nil || !isBusy(err) || attempt == len(insertBackoff) {
			return err
		}
		l.logger.Debug("history: database busy, retrying", "attempt", attempt+1)
		select {
		case <-ctx.Done():
			return fmt.Errorf("history: retry: %w", ctx.Err())
		case <-l.clock.After(insertBackoff[attempt]):
		}
	}
}
