package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"steammatch/internal/models"
)

var (
	ErrBlacklistEntryNotFound = errors.New("blacklist entry not found")
	ErrBlacklistEntryExists   = errors.New("steam_id already in blacklist")
)

// BlacklistRepository is the Postgres-backed local trade blacklist
// (§4.5 step 5) consulted by internal/matching before proposing an
// offer to a candidate. It also implements
// collaborators.TradeBlacklist directly, so it can be wired into the
// matching engine without an adapter.
type BlacklistRepository struct {
	db *sql.DB
}

func NewBlacklistRepository(db *sql.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Create adds a steam_id to the blacklist.
func (r *BlacklistRepository) Create(entry *models.BlacklistEntry) error {
	query := `
		INSERT INTO blacklist (steam_id, reason, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`

	entry.CreatedAt = time.Now()

	err := r.db.QueryRow(
		query,
		entry.SteamID,
		entry.Reason,
		entry.CreatedAt,
	).Scan(&entry.ID)

	if err != nil {
		if isBlacklistUniqueViolation(err) {
			return ErrBlacklistEntryExists
		}
		return err
	}

	return nil
}

// GetAll returns the whole blacklist, newest first.
func (r *BlacklistRepository) GetAll() ([]*models.BlacklistEntry, error) {
	query := `
		SELECT id, steam_id, reason, created_at
		FROM blacklist
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.BlacklistEntry
	for rows.Next() {
		entry := &models.BlacklistEntry{}
		if err := rows.Scan(&entry.ID, &entry.SteamID, &entry.Reason, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// GetByID returns a single entry by its row id.
func (r *BlacklistRepository) GetByID(id int) (*models.BlacklistEntry, error) {
	query := `
		SELECT id, steam_id, reason, created_at
		FROM blacklist
		WHERE id = $1`

	entry := &models.BlacklistEntry{}
	err := r.db.QueryRow(query, id).Scan(&entry.ID, &entry.SteamID, &entry.Reason, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBlacklistEntryNotFound
		}
		return nil, err
	}

	return entry, nil
}

// GetBySteamID returns the entry for a steam_id, if any.
func (r *BlacklistRepository) GetBySteamID(steamID uint64) (*models.BlacklistEntry, error) {
	query := `
		SELECT id, steam_id, reason, created_at
		FROM blacklist
		WHERE steam_id = $1`

	entry := &models.BlacklistEntry{}
	err := r.db.QueryRow(query, steamID).Scan(&entry.ID, &entry.SteamID, &entry.Reason, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBlacklistEntryNotFound
		}
		return nil, err
	}

	return entry, nil
}

// IsBlacklisted implements collaborators.TradeBlacklist.
func (r *BlacklistRepository) IsBlacklisted(ctx context.Context, steamID uint64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM blacklist WHERE steam_id = $1)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, steamID).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// Delete removes a steam_id from the blacklist.
func (r *BlacklistRepository) Delete(steamID uint64) error {
	query := `DELETE FROM blacklist WHERE steam_id = $1`

	result, err := r.db.Exec(query, steamID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBlacklistEntryNotFound
	}

	return nil
}

// DeleteByID removes a single entry by its row id.
func (r *BlacklistRepository) DeleteByID(id int) error {
	query := `DELETE FROM blacklist WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBlacklistEntryNotFound
	}

	return nil
}

// UpdateReason updates the note attached to a blacklisted steam_id.
func (r *BlacklistRepository) UpdateReason(steamID uint64, reason string) error {
	query := `
		UPDATE blacklist
		SET reason = $1
		WHERE steam_id = $2`

	result, err := r.db.Exec(query, reason, steamID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBlacklistEntryNotFound
	}

	return nil
}

// Count returns the size of the blacklist.
func (r *BlacklistRepository) Count() (int, error) {
	query := `SELECT COUNT(*) FROM blacklist`

	var count int
	err := r.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// DeleteAll clears the blacklist.
func (r *BlacklistRepository) DeleteAll() error {
	query := `DELETE FROM blacklist`
	_, err := r.db.Exec(query)
	return err
}

func isBlacklistUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "23505")
}
