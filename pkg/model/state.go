package model

import "fmt"

// MissionStatus represents the lifecycle state of a Mission.
type MissionStatus string

const (
	MissionStatusPending             MissionStatus = "Pending"
	MissionStatusInProgress          MissionStatus = "InProgress"
	MissionStatusSuccessful          MissionStatus = "Successful"
	MissionStatusPartiallySuccessful MissionStatus = "PartiallySuccessful"
	MissionStatusFailed              MissionStatus = "Failed"
	MissionStatusAborted             MissionStatus = "Aborted"
	MissionStatusCancelled           MissionStatus = "Cancelled"
)

// AllMissionStatuses lists every mission status in lifecycle order.
var AllMissionStatuses = []MissionStatus{
	MissionStatusPending,
	MissionStatusInProgress,
	MissionStatusSuccessful,
	MissionStatusPartiallySuccessful,
	MissionStatusFailed,
	MissionStatusAborted,
	MissionStatusCancelled,
}

// String returns the string representation of the mission status.
func (s MissionStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the mission is in a final state.
func (s MissionStatus) IsTerminal() bool {
	switch s {
	case MissionStatusSuccessful, MissionStatusPartiallySuccessful, MissionStatusFailed,
		MissionStatusAborted, MissionStatusCancelled:
		return true
	}
	return false
}

// ValidMissionTransitions defines the allowed state transitions for Missions.
var ValidMissionTransitions = map[MissionStatus][]MissionStatus{
	MissionStatusPending: {MissionStatusInProgress, MissionStatusFailed, MissionStatusCancelled},
	MissionStatusInProgress: {
		MissionStatusSuccessful,
		MissionStatusPartiallySuccessful,
		MissionStatusFailed,
		MissionStatusAborted,
		MissionStatusCancelled,
	},
}

// CanTransitionTo returns true if moving from the current status to next is valid.
func (s MissionStatus) CanTransitionTo(next MissionStatus) bool {
	for _, allowed := range ValidMissionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseMissionStatus converts a string to a MissionStatus.
func ParseMissionStatus(s string) (MissionStatus, error) {
	for _, st := range AllMissionStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown mission status %q", s)
}

// RobotStatus represents the availability of a Robot.
type RobotStatus string

const (
	RobotStatusAvailable         RobotStatus = "Available"
	RobotStatusOffline           RobotStatus = "Offline"
	RobotStatusMissionInProgress RobotStatus = "MissionInProgress"
)

// String returns the string representation of the robot status.
func (s RobotStatus) String() string {
	return string(s)
}

// ParseRobotStatus converts a string to a RobotStatus.
func ParseRobotStatus(s string) (RobotStatus, error) {
	switch RobotStatus(s) {
	case RobotStatusAvailable, RobotStatusOffline, RobotStatusMissionInProgress:
		return RobotStatus(s), nil
	}
	return "", fmt.Errorf("unknown robot status %q", s)
}

// Transport identifies how the robot-control interface reaches a Robot.
type Transport string

const (
	TransportHTTP Transport = "http"
	TransportMQTT Transport = "mqtt"
)
