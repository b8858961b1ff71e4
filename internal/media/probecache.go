package media

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"mediarename/internal/logger"
)

// ProbeCache remembers resolved capture dates across runs, keyed by
// path, size and modification time, so large directories are not
// re-probed when nothing changed. Cache failures are never fatal: a
// miss just means the probes run again.
type ProbeCache struct {
	db *sql.DB
}

// cacheTimeLayout stores capture dates as wall-clock components.
// Rendered filenames depend only on those components, so a cached
// result must restore them exactly; epoch seconds would shift by the
// local UTC offset on the way back.
const cacheTimeLayout = "2006-01-02 15:04:05"

// OpenProbeCache opens or creates the cache database at the given path.
func OpenProbeCache(path string) (*ProbeCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open probe cache: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS probes (
		path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		mod_time INTEGER NOT NULL,
		taken_at TEXT NOT NULL,
		source TEXT NOT NULL,
		resolved_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_probes_mod_time ON probes(mod_time);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create probe cache schema: %w", err)
	}

	return &ProbeCache{db: db}, nil
}

// Get returns the cached result for a file, if its size and
// modification time still match.
func (c *ProbeCache) Get(path string, size int64, modTime time.Time) (DateResult, bool) {
	var takenAt string
	var source string
	err := c.db.QueryRow(
		"SELECT taken_at, source FROM probes WHERE path = ? AND size = ? AND mod_time = ?",
		path, size, modTime.Unix()).Scan(&takenAt, &source)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Debug("Probe cache read failed", "path", path, "error", err)
		}
		return DateResult{}, false
	}
	t, err := time.Parse(cacheTimeLayout, takenAt)
	if err != nil {
		logger.Debug("Probe cache row unparseable", "path", path, "value", takenAt)
		return DateResult{}, false
	}
	return DateResult{Time: t, Source: DateSource(source)}, true
}

// Put stores a resolved result, replacing any stale row for the path.
func (c *ProbeCache) Put(path string, size int64, modTime time.Time, res DateResult) {
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO probes (path, size, mod_time, taken_at, source, resolved_at) VALUES (?, ?, ?, ?, ?, ?)",
		path, size, modTime.Unix(), res.Time.Format(cacheTimeLayout), string(res.Source), time.Now().Unix())
	if err != nil {
		logger.Debug("Probe cache write failed", "path", path, "error", err)
	}
}

// Close closes the underlying database.
func (c *ProbeCache) Close() error {
	return c.db.Close()
}
