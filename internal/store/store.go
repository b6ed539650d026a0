package store

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jmswan/active-kernel/internal/belief"
	"github.com/jmswan/active-kernel/internal/model"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS belief_snapshots (
	version_id    TEXT PRIMARY KEY,
	parent_id     TEXT,
	belief_vector BLOB NOT NULL,
	surprise      REAL NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES belief_snapshots(version_id)
);

CREATE TABLE IF NOT EXISTS decision_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	version_id    TEXT NOT NULL,
	cycle         INTEGER NOT NULL,
	action        TEXT NOT NULL,
	policy_json   TEXT,
	efe_json      TEXT,
	surprise      REAL NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES belief_snapshots(version_id)
);

CREATE TABLE IF NOT EXISTS active_snapshot (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES belief_snapshots(version_id)
);
`

// #endregion schema

// #region types

// Snapshot is one versioned belief record.
type Snapshot struct {
	VersionID string
	ParentID  string
	Belief    belief.Belief
	Surprise  float64
	CreatedAt time.Time
}

// Decision is one row of the decision provenance log.
type Decision struct {
	VersionID  string
	Cycle      uint64
	Action     model.Action
	PolicyJSON string
	EFEJSON    string
	Surprise   float64
	CreatedAt  time.Time
}

// #endregion types

// #region store

// Store persists versioned belief snapshots and decision provenance in
// SQLite. The kernel never touches it; the decision loop does.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion store

// #region save-snapshot

// SaveSnapshot inserts a new belief version, links it to its parent, and
// moves the active pointer, all in one transaction. Returns the new
// version ID.
func (s *Store) SaveSnapshot(b belief.Belief, parentID string, surprise float64) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parentPtr interface{}
	if parentID != "" {
		parentPtr = parentID
	}

	_, err = tx.Exec(
		`INSERT INTO belief_snapshots (version_id, parent_id, belief_vector, surprise, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, parentPtr, encodeBelief(b), surprise, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_snapshot (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		id,
	)
	if err != nil {
		return "", fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// #endregion save-snapshot

// #region get

// GetActive reads the active belief snapshot.
func (s *Store) GetActive() (Snapshot, error) {
	var versionID string
	err := s.db.QueryRow(`SELECT version_id FROM active_snapshot WHERE id = 1`).Scan(&versionID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get active: %w", err)
	}
	return s.GetSnapshot(versionID)
}

// GetSnapshot retrieves a specific belief version by ID.
func (s *Store) GetSnapshot(id string) (Snapshot, error) {
	var snap Snapshot
	var parentID sql.NullString
	var blob []byte
	var createdStr string

	err := s.db.QueryRow(
		`SELECT version_id, parent_id, belief_vector, surprise, created_at
		 FROM belief_snapshots WHERE version_id = ?`, id,
	).Scan(&snap.VersionID, &parentID, &blob, &snap.Surprise, &createdStr)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot %s: %w", id, err)
	}

	if parentID.Valid {
		snap.ParentID = parentID.String
	}
	b, err := decodeBelief(blob)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", id, err)
	}
	snap.Belief = b
	snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return snap, nil
}

// ListSnapshots returns the most recent belief versions.
func (s *Store) ListSnapshots(limit int) ([]Snapshot, error) {
	rows, err := s.db.Query(
		`SELECT version_id, parent_id, belief_vector, surprise, created_at
		 FROM belief_snapshots ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		var parentID sql.NullString
		var blob []byte
		var createdStr string
		if err := rows.Scan(&snap.VersionID, &parentID, &blob, &snap.Surprise, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if parentID.Valid {
			snap.ParentID = parentID.String
		}
		b, err := decodeBelief(blob)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", snap.VersionID, err)
		}
		snap.Belief = b
		snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// #endregion get

// #region decision-log

// LogDecision appends one decision provenance row.
func (s *Store) LogDecision(d Decision) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO decision_log (version_id, cycle, action, policy_json, efe_json, surprise, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.VersionID, d.Cycle, string(d.Action),
		nullIfEmpty(d.PolicyJSON), nullIfEmpty(d.EFEJSON),
		d.Surprise, d.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// ListDecisions returns the most recent decision rows.
func (s *Store) ListDecisions(limit int) ([]Decision, error) {
	rows, err := s.db.Query(
		`SELECT version_id, cycle, action, policy_json, efe_json, surprise, created_at
		 FROM decision_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var d Decision
		var action string
		var policyJSON, efeJSON sql.NullString
		var createdStr string
		if err := rows.Scan(&d.VersionID, &d.Cycle, &action, &policyJSON, &efeJSON, &d.Surprise, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		d.Action = model.Action(action)
		if policyJSON.Valid {
			d.PolicyJSON = policyJSON.String
		}
		if efeJSON.Valid {
			d.EFEJSON = efeJSON.String
		}
		d.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, d)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion decision-log

// #region belief-encoding

// beliefWidth is the total outcome count across all factors, which fixes
// the snapshot BLOB size.
func beliefWidth() int {
	var n int
	for _, f := range model.Factors() {
		n += f.Cardinality()
	}
	return n
}

func encodeBelief(b belief.Belief) []byte {
	buf := make([]byte, 0, beliefWidth()*4)
	for _, f := range model.Factors() {
		for _, v := range b.Factor(f) {
			var cell [4]byte
			binary.LittleEndian.PutUint32(cell[:], math.Float32bits(float32(v)))
			buf = append(buf, cell[:]...)
		}
	}
	return buf
}

func decodeBelief(blob []byte) (belief.Belief, error) {
	if len(blob) != beliefWidth()*4 {
		return belief.Belief{}, fmt.Errorf("belief blob is %d bytes, want %d", len(blob), beliefWidth()*4)
	}
	var b belief.Belief
	off := 0
	for _, f := range model.Factors() {
		row := make([]float64, f.Cardinality())
		for i := range row {
			row[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(blob[off:])))
			off += 4
		}
		b.SetFactor(f, row)
	}
	return b, nil
}

// #endregion belief-encoding
