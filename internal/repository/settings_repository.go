package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"steammatch/internal/models"
)

var ErrSettingsNotFound = errors.New("settings row not found")

// SettingsRepository is the Data Access Layer for the single-row
// process-wide settings table — here, just the persistent installation
// Guid the directory expects in every heartbeat/announce payload (§6).
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GUID returns the installation's persistent Guid, generating and
// persisting a new one on first run.
func (r *SettingsRepository) GUID() (string, error) {
	settings, err := r.Get()
	if err != nil {
		if !errors.Is(err, ErrSettingsNotFound) {
			return "", err
		}
		settings, err = r.createDefault()
		if err != nil {
			return "", err
		}
	}
	return settings.GUID, nil
}

// Get returns the settings row, if it exists.
func (r *SettingsRepository) Get() (*models.InstallationSettings, error) {
	query := `SELECT id, guid, created_at FROM settings WHERE id = 1`

	settings := &models.InstallationSettings{}
	err := r.db.QueryRow(query).Scan(&settings.ID, &settings.GUID, &settings.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}

	return settings, nil
}

func (r *SettingsRepository) createDefault() (*models.InstallationSettings, error) {
	settings := &models.InstallationSettings{
		GUID:      uuid.NewString(),
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO settings (id, guid, created_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO NOTHING`

	if _, err := r.db.Exec(query, settings.GUID, settings.CreatedAt); err != nil {
		return nil, err
	}

	// Another process may have won the race to insert id=1; re-read to
	// return the Guid that actually persisted.
	return r.Get()
}
