// Package store implements the on-disk account database: an embedded
// SQLite file holding the account record, the base/local metadata
// overlays, the sync cursor, the public-key-to-username cache, and the
// bounded document activity log (spec §6.2).
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure-Go driver, registers as "sqlite"

	"github.com/lockbookgo/lbcore/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const maxDocEvents = 1000

// Store is a single account's on-disk database. Exactly one process may
// hold a Store open against a given path at a time (spec §5's
// AlreadyOpen contract), enforced with an adjacent flock file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	lock   *flock.Flock
}

// Open opens (creating and migrating if absent) the account database at
// dbPath. Use ":memory:" for tests, in which case no flock is taken since
// an in-memory database cannot be shared across processes anyway.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var lock *flock.Flock
	if dbPath != ":memory:" {
		lock = flock.New(dbPath + ".lock")

		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("store: acquiring lock on %s: %w", dbPath, err)
		}
		if !locked {
			return nil, model.New(model.ErrAlreadyOpen, dbPath)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		if lock != nil {
			lock.Unlock()
		}
		return nil, fmt.Errorf("store: opening %s: %w", dbPath, err)
	}

	s := &Store{db: db, logger: logger, lock: lock}

	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) init() error {
	ctx := context.Background()

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("store: setting pragma %q: %w", p, err)
		}
	}

	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("store: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, subFS)
	if err != nil {
		return fmt.Errorf("store: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("store: running migrations: %w", err)
	}

	for _, r := range results {
		s.logger.Info("store: applied migration", "source", r.Source.Path, "duration", r.Duration)
	}

	return nil
}

// Close closes the database handle and releases the process-exclusivity
// lock, if one was taken.
func (s *Store) Close() error {
	var errs []error

	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: closing db: %w", err))
	}

	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("store: releasing lock: %w", err))
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// SaveAccount persists the account record, replacing any prior one. An
// account database holds exactly one account for its lifetime.
func (s *Store) SaveAccount(acct model.Account) error {
	_, err := s.db.Exec(
		`INSERT INTO account (id, username, api_url, seed) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET username = excluded.username,
			api_url = excluded.api_url, seed = excluded.seed`,
		acct.Username, acct.APIURL, acct.Seed[:],
	)
	if err != nil {
		return fmt.Errorf("store: saving account: %w", err)
	}
	return nil
}

// LoadAccount returns the database's account record.
func (s *Store) LoadAccount() (*model.Account, error) {
	var (
		username, apiURL string
		seedBytes        []byte
	)

	err := s.db.QueryRow(`SELECT username, api_url, seed FROM account WHERE id = 1`).
		Scan(&username, &apiURL, &seedBytes)
	if err == sql.ErrNoRows {
		return nil, model.New(model.ErrAccountNonexistent, "no account in this database")
	}
	if err != nil {
		return nil, fmt.Errorf("store: loading account: %w", err)
	}
	if len(seedBytes) != len(model.Account{}.Seed) {
		return nil, fmt.Errorf("store: corrupt account row: seed is %d bytes", len(seedBytes))
	}

	var acct model.Account
	acct.Username = username
	acct.APIURL = apiURL
	copy(acct.Seed[:], seedBytes)

	return &acct, nil
}

func marshalSignedFile(f *model.SignedFile) ([]byte, error) {
	buf, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("store: marshaling signed file: %w", err)
	}
	return buf, nil
}

func unmarshalSignedFile(data []byte) (*model.SignedFile, error) {
	var f model.SignedFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("store: unmarshaling signed file: %w", err)
	}
	return &f, nil
}

func (s *Store) readAll(table string) (map[uuid.UUID]*model.SignedFile, error) {
	rows, err := s.db.Query(fmt.Sprintf(`SELECT id, data FROM %s`, table)) //nolint:gosec // table is a fixed internal constant, never user input
	if err != nil {
		return nil, fmt.Errorf("store: reading %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*model.SignedFile)
	for rows.Next() {
		var idStr string
		var data []byte
		if err := rows.Scan(&idStr, &data); err != nil {
			return nil, fmt.Errorf("store: scanning %s row: %w", table, err)
		}

		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("store: corrupt id in %s: %w", table, err)
		}

		f, err := unmarshalSignedFile(data)
		if err != nil {
			return nil, err
		}

		out[id] = f
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating %s: %w", table, err)
	}

	return out, nil
}

// BaseMetadata returns the full server-confirmed overlay.
func (s *Store) BaseMetadata() (map[uuid.UUID]*model.SignedFile, error) {
	return s.readAll("base_metadata")
}

// LocalMetadata returns the full unsynced-change overlay.
func (s *Store) LocalMetadata() (map[uuid.UUID]*model.SignedFile, error) {
	return s.readAll("local_metadata")
}

// UpsertLocal appends or replaces the local_metadata record for f.File.ID,
// matching the "appended to local_metadata" language of spec §3.3.
func (s *Store) UpsertLocal(f *model.SignedFile) error {
	data, err := marshalSignedFile(f)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`INSERT INTO local_metadata (id, data) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		f.File.ID.String(), data,
	)
	if err != nil {
		return fmt.Errorf("store: upserting local metadata %s: %w", f.File.ID, err)
	}
	return nil
}

// LastSynced returns the last-applied server metadata version, or 0 if
// sync has never run.
func (s *Store) LastSynced() (int64, error) {
	var v int64
	err := s.db.QueryRow(`SELECT version FROM last_synced WHERE id = 1`).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: reading last_synced: %w", err)
	}
	return v, nil
}

// PromoteSync atomically applies the effects of a successful sync round
// (spec §4.6 Finalizing, §5's "all or none" requirement): the pulled and
// pushed records replace their base_metadata entries, the pushed ids are
// cleared from local_metadata, and last_synced advances. All of it runs
// inside one transaction so a crash mid-promotion leaves the prior
// consistent state intact rather than a half-applied one.
func (s *Store) PromoteSync(newBase map[uuid.UUID]*model.SignedFile, pushedIDs []uuid.UUID, newVersion int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: beginning promotion tx: %w", err)
	}

	if err := promoteWithin(tx, newBase, pushedIDs, newVersion); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: committing promotion: %w", err)
	}

	return nil
}

func promoteWithin(tx *sql.Tx, newBase map[uuid.UUID]*model.SignedFile, pushedIDs []uuid.UUID, newVersion int64) error {
	for id, f := range newBase {
		data, err := marshalSignedFile(f)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO base_metadata (id, data) VALUES (?, ?)
			 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
			id.String(), data,
		); err != nil {
			return fmt.Errorf("store: promoting base metadata %s: %w", id, err)
		}
	}

	for _, id := range pushedIDs {
		if _, err := tx.Exec(`DELETE FROM local_metadata WHERE id = ?`, id.String()); err != nil {
			return fmt.Errorf("store: clearing local metadata %s: %w", id, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO last_synced (id, version) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version = excluded.version`,
		newVersion,
	); err != nil {
		return fmt.Errorf("store: advancing last_synced: %w", err)
	}

	return nil
}

// CachedUsername looks up a previously learned pubkey->username mapping.
func (s *Store) CachedUsername(pubKey string) (string, bool, error) {
	var username string
	err := s.db.QueryRow(`SELECT username FROM pub_key_lookup WHERE pub_key = ?`, pubKey).Scan(&username)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: reading pub_key_lookup: %w", err)
	}
	return username, true, nil
}

// CacheUsername persists a learned pubkey->username mapping.
func (s *Store) CacheUsername(pubKey, username string) error {
	_, err := s.db.Exec(
		`INSERT INTO pub_key_lookup (pub_key, username) VALUES (?, ?)
		 ON CONFLICT(pub_key) DO UPDATE SET username = excluded.username`,
		pubKey, username,
	)
	if err != nil {
		return fmt.Errorf("store: caching username: %w", err)
	}
	return nil
}

// DocEventKind distinguishes a read from a write in the activity log.
type DocEventKind string

const (
	DocEventRead  DocEventKind = "read"
	DocEventWrite DocEventKind = "write"
)

// DocEvent is a single bounded-log entry backing activity ranking and
// document GC retention (spec §6.2).
type DocEvent struct {
	Kind DocEventKind
	ID   uuid.UUID
	At   time.Time
}

// AddDocEvent appends an event, evicting the oldest entry first if the
// log is already at its cap (spec's supplemented 1000-entry bound,
// matching the original's max_stored_events).
func (s *Store) AddDocEvent(kind DocEventKind, id uuid.UUID, at time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: beginning doc event tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM doc_events`).Scan(&count); err != nil {
		return fmt.Errorf("store: counting doc_events: %w", err)
	}

	if count >= maxDocEvents {
		if _, err := tx.Exec(
			`DELETE FROM doc_events WHERE seq = (SELECT MIN(seq) FROM doc_events)`,
		); err != nil {
			return fmt.Errorf("store: evicting oldest doc_event: %w", err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO doc_events (kind, file_id, ts) VALUES (?, ?, ?)`,
		string(kind), id.String(), at.UnixNano(),
	); err != nil {
		return fmt.Errorf("store: inserting doc_event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: committing doc_event: %w", err)
	}

	return nil
}

// ListDocEvents returns the full bounded log, oldest first.
func (s *Store) ListDocEvents() ([]DocEvent, error) {
	rows, err := s.db.Query(`SELECT kind, file_id, ts FROM doc_events ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: listing doc_events: %w", err)
	}
	defer rows.Close()

	var out []DocEvent
	for rows.Next() {
		var kind, idStr string
		var ts int64
		if err := rows.Scan(&kind, &idStr, &ts); err != nil {
			return nil, fmt.Errorf("store: scanning doc_event: %w", err)
		}

		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("store: corrupt doc_event id: %w", err)
		}

		out = append(out, DocEvent{Kind: DocEventKind(kind), ID: id, At: time.Unix(0, ts)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating doc_events: %w", err)
	}

	return out, nil
}

// ClearDocEvents empties the activity log (spec's clear_suggested).
func (s *Store) ClearDocEvents() error {
	if _, err := s.db.Exec(`DELETE FROM doc_events`); err != nil {
		return fmt.Errorf("store: clearing doc_events: %w", err)
	}
	return nil
}

// ClearDocEventsFor drops every logged event for a single file id (spec's
// clear_suggested_id).
func (s *Store) ClearDocEventsFor(id uuid.UUID) error {
	if _, err := s.db.Exec(`DELETE FROM doc_events WHERE file_id = ?`, id.String()); err != nil {
		return fmt.Errorf("store: clearing doc_events for %s: %w", id, err)
	}
	return nil
}

// DBPath returns a conventional database file path under dir, matching
// the teacher's practice of keeping one well-known state file per synced
// root (it named it sync-state.db; here it's one per account).
func DBPath(dir string) string {
	return filepath.Join(dir, "account.db")
}
