package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/events"
)

// ErrNoSnapshot means the store holds no snapshot yet.
var ErrNoSnapshot = errors.New("persistence: no snapshot")

const metaLatest = "latest_snapshot"

// Store wraps a SQLite connection holding snapshots and the event log.
type Store struct {
	conn *sqlx.DB
}

// SnapshotInfo describes a stored snapshot without its payload.
type SnapshotInfo struct {
	ID        string `db:"id"`
	SimTime   string `db:"sim_time"`
	CreatedAt string `db:"created_at"`
	Digest    string `db:"digest"`
	Entities  int    `db:"entities"`
}

// Time parses the simulation time of the snapshot.
func (i SnapshotInfo) Time() (time.Time, error) {
	return time.Parse(time.RFC3339, i.SimTime)
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite has a single writer, and in-memory databases exist per connection.
	conn.SetMaxOpenConns(1)

	st := &Store{conn: conn}
	if err := st.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}

// Close closes the database connection.
func (st *Store) Close() error {
	return st.conn.Close()
}

func (st *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		sim_time TEXT NOT NULL,
		created_at TEXT NOT NULL,
		digest TEXT NOT NULL,
		entities INTEGER NOT NULL,
		data BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sim_time TEXT NOT NULL,
		category TEXT NOT NULL,
		kind TEXT NOT NULL,
		entity INTEGER NOT NULL,
		amount REAL NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_seq ON snapshots(seq);
	CREATE INDEX IF NOT EXISTS idx_events_time ON events(sim_time);
	CREATE INDEX IF NOT EXISTS idx_events_category ON events(category);
	`
	_, err := st.conn.Exec(schema)
	return err
}

// SaveSnapshot stores snap under a new id and marks it as the latest.
func (st *Store) SaveSnapshot(snap *Snapshot) (SnapshotInfo, error) {
	data, err := snap.Encode()
	if err != nil {
		return SnapshotInfo{}, err
	}
	digest, err := snap.Digest()
	if err != nil {
		return SnapshotInfo{}, err
	}
	info := SnapshotInfo{
		ID:        uuid.NewString(),
		SimTime:   snap.Time.UTC().Format(time.RFC3339),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Digest:    DigestString(digest),
		Entities:  len(snap.Entities),
	}

	tx, err := st.conn.Beginx()
	if err != nil {
		return SnapshotInfo{}, err
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.Get(&seq, "SELECT COALESCE(MAX(seq), 0) + 1 FROM snapshots"); err != nil {
		return SnapshotInfo{}, fmt.Errorf("next seq: %w", err)
	}
	_, err = tx.Exec(`INSERT INTO snapshots
		(id, seq, sim_time, created_at, digest, entities, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		info.ID, seq, info.SimTime, info.CreatedAt, info.Digest, info.Entities, data,
	)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)", metaLatest, info.ID); err != nil {
		return SnapshotInfo{}, fmt.Errorf("save meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return SnapshotInfo{}, err
	}

	slog.Info("snapshot saved", "id", info.ID, "sim_time", info.SimTime, "entities", info.Entities, "digest", info.Digest)
	return info, nil
}

// LoadSnapshot returns the snapshot stored under id.
func (st *Store) LoadSnapshot(id string) (*Snapshot, error) {
	var data []byte
	err := st.conn.Get(&data, "SELECT data FROM snapshots WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, ErrNoSnapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	return Decode(data)
}

// LatestSnapshot returns the most recently saved snapshot.
func (st *Store) LatestSnapshot() (*Snapshot, SnapshotInfo, error) {
	id, err := st.GetMeta(metaLatest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, SnapshotInfo{}, ErrNoSnapshot
	}
	if err != nil {
		return nil, SnapshotInfo{}, err
	}
	var info SnapshotInfo
	err = st.conn.Get(&info, "SELECT id, sim_time, created_at, digest, entities FROM snapshots WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, SnapshotInfo{}, ErrNoSnapshot
	}
	if err != nil {
		return nil, SnapshotInfo{}, err
	}
	snap, err := st.LoadSnapshot(id)
	if err != nil {
		return nil, SnapshotInfo{}, err
	}
	return snap, info, nil
}

// ListSnapshots returns up to limit snapshots, newest first.
func (st *Store) ListSnapshots(limit int) ([]SnapshotInfo, error) {
	var out []SnapshotInfo
	err := st.conn.Select(&out,
		"SELECT id, sim_time, created_at, digest, entities FROM snapshots ORDER BY seq DESC LIMIT ?",
		limit,
	)
	return out, err
}

// Prune deletes all but the newest keep snapshots.
func (st *Store) Prune(keep int) (int64, error) {
	res, err := st.conn.Exec(`DELETE FROM snapshots WHERE seq NOT IN
		(SELECT seq FROM snapshots ORDER BY seq DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SaveEvents appends events to the log.
func (st *Store) SaveEvents(batch []events.Event) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := st.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO events
		(sim_time, category, kind, entity, amount, description)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range batch {
		_, err := stmt.Exec(e.Time.UTC().Format(time.RFC3339), e.Category, e.Kind, int64(e.Entity), e.Amount, e.Description)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", e.Kind, err)
		}
	}

	return tx.Commit()
}

type eventRow struct {
	SimTime     string  `db:"sim_time"`
	Category    string  `db:"category"`
	Kind        string  `db:"kind"`
	Entity      int64   `db:"entity"`
	Amount      float64 `db:"amount"`
	Description string  `db:"description"`
}

// RecentEvents returns the most recent events, newest first. An empty
// category matches all.
func (st *Store) RecentEvents(category string, limit int) ([]events.Event, error) {
	var rows []eventRow
	err := st.conn.Select(&rows, `SELECT sim_time, category, kind, entity, amount, description
		FROM events WHERE (? = '' OR category = ?) ORDER BY id DESC LIMIT ?`,
		category, category, limit,
	)
	if err != nil {
		return nil, err
	}
	out := make([]events.Event, 0, len(rows))
	for _, r := range rows {
		t, err := time.Parse(time.RFC3339, r.SimTime)
		if err != nil {
			return nil, fmt.Errorf("event time %q: %w", r.SimTime, err)
		}
		out = append(out, events.Event{
			Time:        t,
			Category:    r.Category,
			Kind:        r.Kind,
			Entity:      ecs.EntityID(r.Entity),
			Amount:      r.Amount,
			Description: r.Description,
		})
	}
	return out, nil
}

// SaveMeta stores a key-value pair in world metadata.
func (st *Store) SaveMeta(key, value string) error {
	_, err := st.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (st *Store) GetMeta(key string) (string, error) {
	var value string
	err := st.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}
