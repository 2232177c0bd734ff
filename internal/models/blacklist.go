package models

import "time"

// BlacklistEntry is a locally blacklisted trading counterparty (§4.5 step
// 5's "local trade blacklist"), keyed by steam_id rather than a trading
// symbol.
type BlacklistEntry struct {
	ID        int       `json:"id" db:"id"`
	SteamID   uint64    `json:"steam_id" db:"steam_id"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
