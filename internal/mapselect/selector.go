// Package mapselect chooses the georeferenced map that best covers a
// mission's planned tasks.
package mapselect

import (
	"errors"

	"github.com/me/gofleet/pkg/geometry"
	"github.com/me/gofleet/pkg/model"
)

// ErrNoSuitableMap is returned when no candidate contains every task position.
var ErrNoSuitableMap = errors.New("no map contains all task positions")

// SelectBestMap walks candidates in order, keeping a running best. Once a best
// exists, a candidate is only considered if its footprint lies within the
// best's footprint; it replaces the best if it contains every task position.
//
// The result depends on candidate order when several candidates contain all
// tasks without being nested in each other: the first one found wins and
// siblings are pruned.
func SelectBestMap(candidates []model.MapCandidate, tasks []model.PlannedTask) (model.MissionMap, error) {
	var best *model.MapCandidate
	for i := range candidates {
		c := &candidates[i]
		if best != nil && !c.Boundary.IsHigherResolutionThan(best.Boundary) {
			continue
		}
		if tasksInBoundary(c.Boundary, tasks) {
			best = c
		}
	}
	if best == nil {
		return model.MissionMap{}, ErrNoSuitableMap
	}
	return NewMissionMap(*best), nil
}

// NewMissionMap builds the MissionMap for a chosen candidate.
func NewMissionMap(c model.MapCandidate) model.MissionMap {
	corners := c.Boundary.Corners()
	return model.MissionMap{
		MapName:                c.Name,
		Boundary:               c.Boundary,
		TransformationMatrices: geometry.NewTransformationMatrices(corners[0], corners[1], c.ImageWidth, c.ImageHeight),
	}
}

func tasksInBoundary(b geometry.Boundary, tasks []model.PlannedTask) bool {
	for _, t := range tasks {
		if !b.Contains(t.TagPosition) {
			return false
		}
	}
	return true
}
