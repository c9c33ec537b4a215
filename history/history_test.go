package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hazyhaar/mcmappings/mappings"
	"github.com/hazyhaar/mcmappings/scheme"
)

func sequentialIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("lkp_%03d", n)
	})
}

func newTestLog(t *testing.T, clock clockwork.Clock) *Log {
	t.Helper()
	l, err := Open(":memory:", WithClock(clock), sequentialIDs())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecord_FillsIDAndTimestamp(t *testing.T) {
	// WHAT: Record assigns an ID and the clock's time.
	// WHY: Rows are ordered by created_at in Recent.
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	l := newTestLog(t, clock)

	e, err := l.Record(context.Background(), Entry{ClassPath: "net.minecraft.client.Minecraft", Version: "1.20.1", Scheme: "mojang"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if e.ID != "lkp_001" {
		t.Errorf("id: got %q", e.ID)
	}
	if e.CreatedAt != 1_700_000_000 {
		t.Errorf("created_at: got %d", e.CreatedAt)
	}
}

func TestObserve_SuccessAndFailure(t *testing.T) {
	// WHAT: Observe stores counts for successes and the error kind for failures.
	// WHY: Stats relies on error_kind to surface layout drift.
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	l := newTestLog(t, clock)
	ctx := context.Background()

	l.Observe(ctx, mappings.Outcome{
		ClassPath: "net.minecraft.world.phys.AABB",
		Version:   "1.20.1",
		Scheme:    scheme.Mojang,
		URL:       "https://mappings.dev/1.20.1/net/minecraft/world/phys/AABB.html",
		Fields:    6,
		Methods:   40,
		Duration:  120 * time.Millisecond,
	})
	clock.Advance(time.Minute)
	l.Observe(ctx, mappings.Outcome{
		ClassPath: "net.minecraft.world.entity.Entity",
		Version:   "1.20.1",
		Scheme:    scheme.Yarn,
		Err:       &mappings.MarkerNotFoundError{Kind: mappings.KindRequestedClass, Scheme: scheme.Yarn},
	})
	clock.Advance(time.Minute)
	l.Observe(ctx, mappings.Outcome{
		ClassPath: "net.minecraft.client.Minecraft",
		Version:   "1.12.2",
		Scheme:    scheme.Mojang,
		Err:       &mappings.UnsupportedSchemeError{Version: "1.12.2", Scheme: scheme.Mojang},
	})

	recent, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("recent: got %d entries, want 3", len(recent))
	}
	if recent[0].ErrorKind != "unsupported_scheme" {
		t.Errorf("newest first: got %q", recent[0].ErrorKind)
	}
	if recent[1].ErrorKind != "marker_not_found" || recent[1].Scheme != "yarn" {
		t.Errorf("second: got %+v", recent[1])
	}
	ok := recent[2]
	if ok.ErrorKind != "" || ok.Fields != 6 || ok.Methods != 40 || ok.DurationMS != 120 {
		t.Errorf("success row: got %+v", ok)
	}

	st, err := l.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 3 || st.OK != 1 {
		t.Errorf("stats: got total=%d ok=%d", st.Total, st.OK)
	}
	if st.ByError["marker_not_found"] != 1 || st.ByError["unsupported_scheme"] != 1 {
		t.Errorf("stats by error: got %v", st.ByError)
	}
}

func TestObserve_CancelledContext(t *testing.T) {
	// WHAT: A cancelled request context does not drop the history row.
	// WHY: HTTP clients often hang up right after the response.
	l := newTestLog(t, clockwork.NewFakeClock())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l.Observe(ctx, mappings.Outcome{ClassPath: "a.b", Version: "1.20.1", Err: errors.New("boom")})

	recent, err := l.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].ErrorKind != "unknown" {
		t.Fatalf("got %+v", recent)
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "history.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	if _, err := l.Record(context.Background(), Entry{ClassPath: "a.B", Version: "1.20.1", Scheme: "mojang"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	st, err := l.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 1 {
		t.Errorf("total: got %d", st.Total)
	}
}

func TestOpen_PragmasOnEveryConnection(t *testing.T) {
	// WHAT: WAL and the busy timeout hold on each pooled connection.
	// WHY: A pragma run once only reaches whichever connection executed it.
	l, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	ctx := context.Background()
	first, err := l.db.Conn(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer first.Close()
	second, err := l.db.Conn(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	for i, c := range []*sql.Conn{first, second} {
		var mode string
		var timeout int64
		if err := c.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
			t.Fatalf("conn %d: %v", i, err)
		}
		if err := c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("conn %d: %v", i, err)
		}
		if mode != "wal" || timeout != defaultBusyTimeout.Milliseconds() {
			t.Errorf("conn %d: journal_mode=%q busy_timeout=%d", i, mode, timeout)
		}
	}
}

func TestRecord_RetriesWhileLocked(t *testing.T) {
	// WHAT: An insert that hits a held write lock waits and retries until it lands.
	// WHY: The CLI and the HTTP server may share one history file.
	db, err := openDB(filepath.Join(t.TempDir(), "history.db"), time.Millisecond)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	clock := clockwork.NewFakeClock()
	l := newLog(db, WithClock(clock), sequentialIDs())
	defer l.Close()

	ctx := context.Background()
	holder, err := db.Conn(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer holder.Close()
	if _, err := holder.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		t.Fatalf("lock: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := l.Record(ctx, Entry{ClassPath: "net.minecraft.world.phys.AABB", Version: "1.20.1", Scheme: "mojang"})
		done <- err
	}()

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(waitCtx, 1); err != nil {
		t.Fatalf("insert never backed off: %v", err)
	}
	if _, err := holder.ExecContext(ctx, "ROLLBACK"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	clock.Advance(insertBackoff[0])

	if err := <-done; err != nil {
		t.Fatalf("record: %v", err)
	}
	recent, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != "lkp_001" || recent[0].ClassPath != "net.minecraft.world.phys.AABB" {
		t.Errorf("got %+v", recent)
	}
}

func TestRecord_GivesUpWhenStillLocked(t *testing.T) {
	// WHAT: After the last backoff the busy error is returned, wrapped.
	db, err := openDB(filepath.Join(t.TempDir(), "history.db"), time.Millisecond)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	clock := clockwork.NewFakeClock()
	l := newLog(db, WithClock(clock))
	defer l.Close()

	ctx := context.Background()
	holder, err := db.Conn(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer holder.Close()
	if _, err := holder.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer holder.ExecContext(ctx, "ROLLBACK")

	done := make(chan error, 1)
	go func() {
		_, err := l.Record(ctx, Entry{ClassPath: "a.B", Version: "1.20.1", Scheme: "mojang"})
		done <- err
	}()
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, d := range insertBackoff {
		if err := clock.BlockUntilContext(waitCtx, 1); err != nil {
			t.Fatalf("no backoff: %v", err)
		}
		clock.Advance(d)
	}

	err = <-done
	if !isBusy(err) {
		t.Fatalf("got %v, want SQLITE_BUSY", err)
	}
}

func TestIsBusy(t *testing.T) {
	if isBusy(nil) || isBusy(errors.New("database is locked")) {
		t.Error("only driver errors carry a result code")
	}
}
