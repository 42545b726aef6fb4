package linkpreview

import (
	"context"
	"database/sql"
	"time"
)

// Repository handles preview cache persistence.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetCachedURL returns the cache entry for a normalized URL, or nil if not found / expired.
func (r *Repository) GetCachedURL(ctx context.Context, url string) (*CacheEntry, error) {
	var c CacheEntry
	var status, fetchedAt, expiresAt string
	var image sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT url, title, image, status, fetched_at, expires_at
		FROM preview_cache WHERE url = ?
	`, url).Scan(&c.URL, &c.Title, &image, &status, &fetchedAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.Image = image.String
	c.Status = Status(status)
	c.FetchedAt, _ = time.Parse(time.RFC3339, fetchedAt)
	c.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)

	// Treat expired entries as a miss.
	if time.Now().After(c.ExpiresAt) {
		return nil, nil
	}

	return &c, nil
}

// SetCachedURL inserts or replaces a cache entry.
func (r *Repository) SetCachedURL(ctx context.Context, c *CacheEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO preview_cache (url, title, image, status, fetched_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.URL, c.Title, nullString(c.Image), string(c.Status),
		c.FetchedAt.UTC().Format(time.RFC3339), c.ExpiresAt.UTC().Format(time.RFC3339))
	return err
}

// DeleteCachedURL removes the cache entry for a URL, if any.
func (r *Repository) DeleteCachedURL(ctx context.Context, url string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM preview_cache WHERE url = ?`, url)
	return err
}

// CleanExpiredCache removes expired entries and reports how many were deleted.
func (r *Repository) CleanExpiredCache(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM preview_cache WHERE expires_at < ?`, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// nullString returns sql.NullString for optional text fields.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
