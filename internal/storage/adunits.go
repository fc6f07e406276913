// Package storage provides database access for the ad unit catalog
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/thenexusengine/tne_adbridge/internal/config"
	"github.com/thenexusengine/tne_adbridge/pkg/catalog"
)

// Schema creates the ad_units table. The catalog endpoint lists rows per game
// in creation order, so the first unit of each format wins on the client.
const Schema = `
	CREATE TABLE IF NOT EXISTS ad_units (
		id             BIGSERIAL PRIMARY KEY,
		game_id        INTEGER     NOT NULL,
		display_format TEXT        NOT NULL,
		placement_id   TEXT        NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS ad_units_game_id_idx ON ad_units (game_id, created_at, id);
`

// AdUnit is a stored ad unit row
type AdUnit struct {
	ID            int64     `json:"id"`
	GameID        int       `json:"game_id"`
	DisplayFormat string    `json:"display_format"`
	PlacementID   string    `json:"placement_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// ErrInvalidAdUnit is returned by Create for rows the catalog cannot serve
var ErrInvalidAdUnit = errors.New("invalid ad unit")

// ErrAdUnitNotFound is returned by Delete when no unit matches the game and ID
var ErrAdUnitNotFound = errors.New("ad unit not found")

var validFormats = map[string]bool{
	catalog.FormatInterstitial:  true,
	catalog.FormatRewardedVideo: true,
	catalog.FormatBanner:        true,
}

// AdUnitStore provides database operations for ad units
type AdUnitStore struct {
	db *sql.DB
}

// NewAdUnitStore creates a new ad unit store
func NewAdUnitStore(db *sql.DB) *AdUnitStore {
	return &AdUnitStore{db: db}
}

// Migrate applies Schema
func (s *AdUnitStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply ad_units schema: %w", err)
	}
	return nil
}

// Catalog returns the catalog for gameID. A game with no rows yields an
// empty, non-nil Ads list.
func (s *AdUnitStore) Catalog(ctx context.Context, gameID int) (*catalog.Response, error) {
	query := `
		SELECT display_format, placement_id
		FROM ad_units
		WHERE game_id = $1
		ORDER BY created_at, id
	`

	ctx, cancel := context.WithTimeout(ctx, config.DBQueryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ad units: %w", err)
	}
	defer rows.Close()

	resp := &catalog.Response{GameID: gameID, Ads: make([]catalog.AdUnit, 0, 4)}
	for rows.Next() {
		var u catalog.AdUnit
		if err := rows.Scan(&u.DisplayFormat, &u.PlacementID); err != nil {
			return nil, fmt.Errorf("failed to scan ad unit row: %w", err)
		}
		resp.Ads = append(resp.Ads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ad units: %w", err)
	}

	return resp, nil
}

// Create inserts a new ad unit
func (s *AdUnitStore) Create(ctx context.Context, u *AdUnit) error {
	if err := ValidateAdUnit(u); err != nil {
		return err
	}

	query := `
		INSERT INTO ad_units (game_id, display_format, placement_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, u.GameID, u.DisplayFormat, u.PlacementID).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ad unit: %w", err)
	}
	return nil
}

// Delete removes an ad unit by ID. The unit must belong to gameID.
func (s *AdUnitStore) Delete(ctx context.Context, gameID int, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM ad_units WHERE id = $1 AND game_id = $2`, id, gameID)
	if err != nil {
		return fmt.Errorf("failed to delete ad unit: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: game %d, id %d", ErrAdUnitNotFound, gameID, id)
	}
	return nil
}

// Ping checks database connectivity
func (s *AdUnitStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ValidateAdUnit checks that u has a game, a known format and a placement
func ValidateAdUnit(u *AdUnit) error {
	switch {
	case u == nil:
		return fmt.Errorf("%w: nil", ErrInvalidAdUnit)
	case u.GameID <= 0:
		return fmt.Errorf("%w: game_id must be positive", ErrInvalidAdUnit)
	case !validFormats[u.DisplayFormat]:
		return fmt.Errorf("%w: unknown display_format %q", ErrInvalidAdUnit, u.DisplayFormat)
	case strings.TrimSpace(u.PlacementID) == "":
		return fmt.Errorf("%w: placement_id is empty", ErrInvalidAdUnit)
	}
	return nil
}

// DBConfig holds PostgreSQL connection settings
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ConnString returns the lib/pq keyword/value connection string
func (c DBConfig) ConnString() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslmode)
}

// NewDBConnection opens and pings a PostgreSQL connection pool
func NewDBConnection(cfg DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Catalog reads are small and mostly served from Redis
	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)
	db.SetConnMaxLifetime(config.DBConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
