package spacetraveling

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding generated pages and optimized
// banner images, so a restarted server keeps serving the last build.
type Store struct {
	db *sql.DB
}

// StoredPage is a page snapshot.
type StoredPage struct {
	Path        string
	Body        []byte
	GeneratedAt time.Time
}

// StoredBanner is an optimized banner image.
type StoredBanner struct {
	UID       string
	SourceURL string
	Width     int
	Height    int
	Data      []byte
	CreatedAt time.Time
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed while a regeneration writes; writers wait on
	// the busy timeout instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS pages (
    path TEXT PRIMARY KEY,
    body BLOB NOT NULL,
    generated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS banners (
    uid TEXT PRIMARY KEY,
    source_url TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    data BLOB NOT NULL,
    created_at INTEGER NOT NULL
);
`)
	return err
}

// SavePage inserts or replaces the page at path.
func (s *Store) SavePage(path string, body []byte, generatedAt time.Time) error {
	_, err := s.db.Exec(`
INSERT INTO pages (path, body, generated_at) VALUES (?, ?, ?)
ON CONFLICT(path) DO UPDATE SET body=excluded.body, generated_at=excluded.generated_at
`, path, body, generatedAt.UnixNano())
	return err
}

// GetPage returns the page at path, or sql.ErrNoRows.
func (s *Store) GetPage(path string) (StoredPage, error) {
	var p StoredPage
	var generated int64
	row := s.db.QueryRow(`SELECT path, body, generated_at FROM pages WHERE path = ?`, path)
	if err := row.Scan(&p.Path, &p.Body, &generated); err != nil {
		return StoredPage{}, err
	}
	p.GeneratedAt = time.Unix(0, generated)
	return p, nil
}

// DeletePage removes the page at path.
func (s *Store) DeletePage(path string) error {
	_, err := s.db.Exec(`DELETE FROM pages WHERE path = ?`, path)
	return err
}

// DeleteAllPages removes every stored page. Banners are kept.
func (s *Store) DeleteAllPages() error {
	_, err := s.db.Exec(`DELETE FROM pages`)
	return err
}

// SaveBanner inserts or replaces the banner for b.UID.
func (s *Store) SaveBanner(b StoredBanner) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
INSERT INTO banners (uid, source_url, width, height, data, created_at) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(uid) DO UPDATE SET source_url=excluded.source_url, width=excluded.width,
    height=excluded.height, data=excluded.data, created_at=excluded.created_at
`, b.UID, b.SourceURL, b.Width, b.Height, b.Data, b.CreatedAt.UnixNano())
	return err
}

// GetBanner returns the banner for uid, or sql.ErrNoRows.
func (s *Store) GetBanner(uid string) (StoredBanner, error) {
	var b StoredBanner
	var created int64
	row := s.db.QueryRow(`SELECT uid, source_url, width, height, data, created_at FROM banners WHERE uid = ?`, uid)
	if err := row.Scan(&b.UID, &b.SourceURL, &b.Width, &b.Height, &b.Data, &created); err != nil {
		return StoredBanner{}, err
	}
	b.CreatedAt = time.Unix(0, created)
	return b, nil
}
