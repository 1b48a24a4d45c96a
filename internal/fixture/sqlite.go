package fixture

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/calvinalkan/mvccscan/internal/memengine"
)

// sqliteBusyTimeout is the time SQLite waits when the database is locked.
const sqliteBusyTimeout = 10000 // milliseconds

// LoadSQLite reads a scan scenario corpus from a SQLite file and builds a
// memengine.Snapshot from the scenario named by name. The schema is:
//
//	CREATE TABLE keys     (id INTEGER PRIMARY KEY, scenario TEXT, key_hex TEXT);
//	CREATE TABLE versions (key_id INTEGER, commit_ts INTEGER, kind TEXT,
//	                       start_ts INTEGER, short_value_hex TEXT, default_value_hex TEXT);
//	CREATE TABLE locks    (key_id INTEGER PRIMARY KEY, start_ts INTEGER, primary_hex TEXT);
//
// This gives scenarios with large, dense version histories (for example the
// many-tombstones scenario) a realistic on-disk seed format instead of only
// inline fixtures.
func LoadSQLite(ctx context.Context, path, scenario string) (*memengine.Snapshot, error) {
	db, err := openSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	keyRows, err := db.QueryContext(ctx, `SELECT id, key_hex FROM keys WHERE scenario = ?`, scenario)
	if err != nil {
		return nil, fmt.Errorf("fixture: query keys: %w", err)
	}
	defer keyRows.Close()

	var f memengine.Fixture
	keyIDs := make(map[int64]int) // key_id -> index into f.Keys

	for keyRows.Next() {
		var id int64
		var keyHex string
		if err := keyRows.Scan(&id, &keyHex); err != nil {
			return nil, fmt.Errorf("fixture: scan key row: %w", err)
		}
		keyIDs[id] = len(f.Keys)
		f.Keys = append(f.Keys, memengine.KeyFixture{KeyHex: keyHex})
	}
	if err := keyRows.Err(); err != nil {
		return nil, fmt.Errorf("fixture: iterate keys: %w", err)
	}

	versionRows, err := db.QueryContext(ctx, `
		SELECT key_id, commit_ts, kind, start_ts, short_value_hex, default_value_hex
		FROM versions WHERE key_id IN (SELECT id FROM keys WHERE scenario = ?)
		ORDER BY key_id, commit_ts`, scenario)
	if err != nil {
		return nil, fmt.Errorf("fixture: query versions: %w", err)
	}
	defer versionRows.Close()

	for versionRows.Next() {
		var keyID int64
		var wf memengine.WriteFixture
		var shortValueHex, defaultValueHex sql.NullString
		if err := versionRows.Scan(&keyID, &wf.CommitTS, &wf.Kind, &wf.StartTS, &shortValueHex, &defaultValueHex); err != nil {
			return nil, fmt.Errorf("fixture: scan version row: %w", err)
		}
		if shortValueHex.Valid {
			wf.ShortValueHex = &shortValueHex.String
		}
		if defaultValueHex.Valid {
			wf.DefaultValueHex = &defaultValueHex.String
		}
		idx, ok := keyIDs[keyID]
		if !ok {
			continue
		}
		f.Keys[idx].Versions = append(f.Keys[idx].Versions, wf)
	}
	if err := versionRows.Err(); err != nil {
		return nil, fmt.Errorf("fixture: iterate versions: %w", err)
	}

	lockRows, err := db.QueryContext(ctx, `
		SELECT key_id, start_ts, primary_hex FROM locks
		WHERE key_id IN (SELECT id FROM keys WHERE scenario = ?)`, scenario)
	if err != nil {
		return nil, fmt.Errorf("fixture: query locks: %w", err)
	}
	defer lockRows.Close()

	for lockRows.Next() {
		var keyID int64
		var lf memengine.LockFixture
		if err := lockRows.Scan(&keyID, &lf.StartTS, &lf.PrimaryHex); err != nil {
			return nil, fmt.Errorf("fixture: scan lock row: %w", err)
		}
		idx, ok := keyIDs[keyID]
		if !ok {
			continue
		}
		f.Keys[idx].Lock = &lf
	}
	if err := lockRows.Err(); err != nil {
		return nil, fmt.Errorf("fixture: iterate locks: %w", err)
	}

	return memengine.Build(f)
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("fixture: open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("fixture: ping sqlite: %w", err)
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		PRAGMA busy_timeout = %d;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = FULL;
		PRAGMA mmap_size = 268435456;
		PRAGMA cache_size = -20000;
		PRAGMA temp_store = MEMORY;
	`, sqliteBusyTimeout))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("fixture: apply pragmas: %w", err)
	}
	return db, nil
}
