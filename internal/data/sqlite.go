package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"linkboard/internal/domain"
	"linkboard/internal/domain/valueobject"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/mattn/go-sqlite3"
)

// Compile-time interface check
var _ domain.LinkRepository = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS links (
	slug                TEXT PRIMARY KEY,
	title               TEXT NOT NULL,
	destination_url     TEXT NOT NULL,
	creator_token       TEXT NOT NULL,
	created_at_ms       INTEGER NOT NULL,
	origin_country      TEXT NOT NULL DEFAULT 'Unknown',
	origin_country_code TEXT NOT NULL DEFAULT 'XX',
	total_clicks        INTEGER NOT NULL DEFAULT 0,
	unique_clicks       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS link_clicks (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	slug            TEXT NOT NULL REFERENCES links(slug),
	timestamp_ms    INTEGER NOT NULL,
	country         TEXT NOT NULL,
	referrer_source TEXT NOT NULL,
	fingerprint     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_link_clicks_slug ON link_clicks(slug);
CREATE INDEX IF NOT EXISTS idx_links_creator ON links(creator_token);
`

// SQLiteStore is the embedded SQL link store. The click history lives in a
// child table in insertion order; Update serializes read-modify-write cycles
// through a transaction on a single-connection pool, which pairs with
// SQLite's writer lock to keep per-slug mutations lost-update-free.
type SQLiteStore struct {
	db  *sql.DB
	log *log.Helper
}

// NewSQLiteStore opens (and if needed initializes) the database at path.
// Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string, logger log.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: SQLite allows one writer, and the shared pool
	// would otherwise hand transactions separate connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:  db,
		log: log.NewHelper(logger),
	}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create inserts the link; the primary key on slug makes the insert the
// atomic check-and-set, with a constraint violation mapped to ErrSlugTaken.
func (s *SQLiteStore) Create(ctx context.Context, link *domain.Link) error {
	state := link.State()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO links (slug, title, destination_url, creator_token, created_at_ms,
			origin_country, origin_country_code, total_clicks, unique_clicks)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		state.Slug, state.Title, state.DestinationURL, state.CreatorToken, state.CreatedAtMs,
		state.OriginCountry, state.OriginCountryCode, state.TotalClicks, state.UniqueClicks,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return domain.ErrSlugTaken
		}
		return storeErr("insert link", err)
	}
	return nil
}

// FindBySlug retrieves a link with its full click history.
func (s *SQLiteStore) FindBySlug(ctx context.Context, slug valueobject.Slug) (*domain.Link, error) {
	return s.loadLink(ctx, s.db, slug.String())
}

// Exists reports whether a record for the slug exists.
func (s *SQLiteStore) Exists(ctx context.Context, slug valueobject.Slug) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM links WHERE slug = ?`, slug.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storeErr("check slug", err)
	}
	return true, nil
}

// Update loads the record inside a transaction, applies the mutator and
// persists the difference: counters and title on the links row, appended
// clicks into the child table.
func (s *SQLiteStore) Update(ctx context.Context, slug valueobject.Slug, mutate func(*domain.Link) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin update", err)
	}
	defer tx.Rollback()

	link, err := s.loadLink(ctx, tx, slug.String())
	if err != nil {
		return err
	}
	before := len(link.Clicks())

	if err := mutate(link); err != nil {
		return err
	}

	state := link.State()
	if _, err := tx.ExecContext(ctx,
		`UPDATE links SET title = ?, total_clicks = ?, unique_clicks = ? WHERE slug = ?`,
		state.Title, state.TotalClicks, state.UniqueClicks, state.Slug,
	); err != nil {
		return storeErr("update link", err)
	}

	for _, c := range state.Clicks[before:] {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO link_clicks (slug, timestamp_ms, country, referrer_source, fingerprint)
			 VALUES (?, ?, ?, ?, ?)`,
			state.Slug, c.TimestampMs, c.Country, c.ReferrerSource, c.Fingerprint,
		); err != nil {
			return storeErr("insert click", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit update", err)
	}
	return nil
}

// FindAll returns all links with their histories, newest first.
func (s *SQLiteStore) FindAll(ctx context.Context, ownerToken *string) ([]*domain.Link, error) {
	query := `SELECT slug, title, destination_url, creator_token, created_at_ms,
			origin_country, origin_country_code, total_clicks, unique_clicks
		 FROM links`
	args := []any{}
	if ownerToken != nil {
		query += ` WHERE creator_token = ?`
		args = append(args, *ownerToken)
	}
	query += ` ORDER BY created_at_ms DESC, slug ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("select links", err)
	}
	defer rows.Close()

	states := make([]domain.LinkState, 0)
	for rows.Next() {
		state, err := scanLinkState(rows)
		if err != nil {
			return nil, storeErr("scan link", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("select links", err)
	}

	clicksBySlug, err := s.loadAllClicks(ctx)
	if err != nil {
		return nil, err
	}

	links := make([]*domain.Link, 0, len(states))
	for _, state := range states {
		state.Clicks = clicksBySlug[state.Slug]
		link, err := domain.ReconstructLink(state)
		if err != nil {
			return nil, storeErr("reconstruct link", err)
		}
		links = append(links, link)
	}
	return links, nil
}

// CountDistinctOwners returns the number of distinct creator tokens.
func (s *SQLiteStore) CountDistinctOwners(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT creator_token) FROM links`).Scan(&count)
	if err != nil {
		return 0, storeErr("count owners", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLinkState(row rowScanner) (domain.LinkState, error) {
	var state domain.LinkState
	err := row.Scan(
		&state.Slug, &state.Title, &state.DestinationURL, &state.CreatorToken, &state.CreatedAtMs,
		&state.OriginCountry, &state.OriginCountryCode, &state.TotalClicks, &state.UniqueClicks,
	)
	return state, err
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteStore) loadLink(ctx context.Context, q querier, slug string) (*domain.Link, error) {
	row := q.QueryRowContext(ctx,
		`SELECT slug, title, destination_url, creator_token, created_at_ms,
			origin_country, origin_country_code, total_clicks, unique_clicks
		 FROM links WHERE slug = ?`, slug)

	state, err := scanLinkState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLinkNotFound
	}
	if err != nil {
		return nil, storeErr("select link", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT timestamp_ms, country, referrer_source, fingerprint
		 FROM link_clicks WHERE slug = ? ORDER BY id ASC`, slug)
	if err != nil {
		return nil, storeErr("select clicks", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Click
		if err := rows.Scan(&c.TimestampMs, &c.Country, &c.ReferrerSource, &c.Fingerprint); err != nil {
			return nil, storeErr("scan click", err)
		}
		state.Clicks = append(state.Clicks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("select clicks", err)
	}

	link, err := domain.ReconstructLink(state)
	if err != nil {
		return nil, storeErr("reconstruct link", err)
	}
	return link, nil
}

func (s *SQLiteStore) loadAllClicks(ctx context.Context) (map[string][]domain.Click, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slug, timestamp_ms, country, referrer_source, fingerprint
		 FROM link_clicks ORDER BY id ASC`)
	if err != nil {
		return nil, storeErr("select clicks", err)
	}
	defer rows.Close()

	result := make(map[string][]domain.Click)
	for rows.Next() {
		var slug string
		var c domain.Click
		if err := rows.Scan(&slug, &c.TimestampMs, &c.Country, &c.ReferrerSource, &c.Fingerprint); err != nil {
			return nil, storeErr("scan click", err)
		}
		result[slug] = append(result[slug], c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("select clicks", err)
	}
	return result, nil
}
