package models

import "time"

// InstallationSettings holds the single-row, process-wide settings row:
// the persistent installation Guid the directory heartbeat/announce
// payload reports alongside the bot list (§6: "a persistent Guid
// identifying this installation, generated on first run"). There is
// always exactly one row, id=1.
type InstallationSettings struct {
	ID        int       `json:"id" db:"id"`
	GUID      string    `json:"guid" db:"guid"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
