package model

import (
	"time"

	"github.com/me/gofleet/pkg/geometry"
)

// Mission is a unit of work assigned to one robot, tracked through a status lifecycle.
type Mission struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	RobotID          string        `json:"robot_id"`
	Robot            *Robot        `json:"robot,omitempty"` // Joined on read, not stored
	AssetCode        string        `json:"asset_code"`
	DesiredStartTime time.Time     `json:"desired_start_time"`
	Status           MissionStatus `json:"status"`
	StatusReason     string        `json:"status_reason,omitempty"`
	Map              *MissionMap   `json:"map,omitempty"`
	Tasks            []PlannedTask `json:"tasks,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// PlannedTask is a tag position a mission must visit.
type PlannedTask struct {
	TagID       string             `json:"tag_id,omitempty"`
	TagPosition *geometry.Position `json:"tag_position,omitempty"`
}

// MissionMap is the map chosen for a mission. The zero value means no map was found.
type MissionMap struct {
	MapName                string                          `json:"map_name"`
	Boundary               geometry.Boundary               `json:"boundary"`
	TransformationMatrices geometry.TransformationMatrices `json:"transformation_matrices"`
}

// IsZero reports whether m carries no map.
func (m MissionMap) IsZero() bool {
	return m.MapName == ""
}

// MapCandidate is a map available for an asset, built from blob metadata.
type MapCandidate struct {
	Name        string            `json:"name"`
	Boundary    geometry.Boundary `json:"boundary"`
	ImageWidth  int               `json:"image_width"`
	ImageHeight int               `json:"image_height"`
}

// MissionSummary provides an aggregate count of mission statuses.
type MissionSummary struct {
	Total               int `json:"total"`
	Pending             int `json:"pending"`
	InProgress          int `json:"in_progress"`
	Successful          int `json:"successful"`
	PartiallySuccessful int `json:"partially_successful"`
	Failed              int `json:"failed"`
	Aborted             int `json:"aborted"`
	Cancelled           int `json:"cancelled"`
}

// ComputeMissionSummary calculates the MissionSummary from a slice of Missions.
func ComputeMissionSummary(missions []*Mission) MissionSummary {
	s := MissionSummary{Total: len(missions)}
	for _, m := range missions {
		switch m.Status {
		case MissionStatusPending:
			s.Pending++
		case MissionStatusInProgress:
			s.InProgress++
		case MissionStatusSuccessful:
			s.Successful++
		case MissionStatusPartiallySuccessful:
			s.PartiallySuccessful++
		case MissionStatusFailed:
			s.Failed++
		case MissionStatusAborted:
			s.Aborted++
		case MissionStatusCancelled:
			s.Cancelled++
		}
	}
	return s
}
