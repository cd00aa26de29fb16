package model

import "time"

// Robot is a fleet member that missions are dispatched to.
type Robot struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	SerialNumber string      `json:"serial_number,omitempty"`
	AssetCode    string      `json:"asset_code"`
	Status       RobotStatus `json:"status"`
	Enabled      bool        `json:"enabled"`
	Transport    Transport   `json:"transport"`
	Host         string      `json:"host,omitempty"`
	Port         int         `json:"port,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
