package models

import "time"

// TransitionResult reports which firefighter timestamps a status update stamped
// for the first time.
type TransitionResult struct {
	RespondedJustSet bool `json:"responded_just_set"`
	AckJustSet       bool `json:"ack_just_set"`
}

func (r TransitionResult) Any() bool {
	return r.RespondedJustSet || r.AckJustSet
}

type StationDistance struct {
	Station    Station `json:"station"`
	DistanceKm float64 `json:"distance_km"`
}

type DispatchStation struct {
	Station      Station       `json:"station"`
	DistanceKm   float64       `json:"distance_km"`
	Firefighters []Firefighter `json:"firefighters"`
	UnderStaffed bool          `json:"under_staffed"`
}

// DispatchPlan is the fan-out summary of an alert: which stations are signalled
// and which firefighters are texted.
type DispatchPlan struct {
	AlertID      uint              `json:"alert_id"`
	Notification *Notification     `json:"notification"`
	Stations     []DispatchStation `json:"stations"`
	Recipients   []Firefighter     `json:"recipients"`
}

type HistogramBucket struct {
	IntervalStart time.Time `json:"interval_start"`
	FireCount     int       `json:"fire_count"`
	SmokeCount    int       `json:"smoke_count"`
}

type DashboardStats struct {
	Date              string  `json:"date"`
	DetectionsToday   int64   `json:"detections_today"`
	FireToday         int64   `json:"fire_today"`
	SmokeToday        int64   `json:"smoke_today"`
	RespondedCount    int     `json:"responded_count"`
	AcknowledgedCount int     `json:"acknowledged_count"`
	AvgResponseTime   float64 `json:"avg_response_time"`
	ActiveCameras     int64   `json:"active_cameras"`
	PersonnelOnline   int64   `json:"personnel_online"`
}

type DashboardState struct {
	Cameras          []Camera          `json:"cameras"`
	Detections       []Detection       `json:"detections"`
	Alerts           []Alert           `json:"alerts"`
	Activity         []Activity        `json:"activity"`
	Firefighters     []Firefighter     `json:"firefighters"`
	Personnel        []Personnel       `json:"personnel"`
	Stations         []Station         `json:"stations"`
	Stats            DashboardStats    `json:"stats"`
	DetectionHistory []HistogramBucket `json:"detection_history"`
	LastUpdate       time.Time         `json:"last_update"`
}

type CreateAlertInput struct {
	DetectionID     *uint
	Type            *DetectionType
	Location        string
	Message         string
	Level           AlertLevel
	AdminStatusHint AdminStatus
}

type DetectionInput struct {
	CameraID   uint
	CameraName string
	Type       DetectionType
	Confidence float64
	ImagePath  *string
	ClipPath   *string
	Location   string
	Latitude   *float64
	Longitude  *float64
	Timestamp  time.Time

	// AutoAlert raises an alert for the detection in the same transaction,
	// using AdminStatusHint as the initial decision.
	AutoAlert       bool
	AdminStatusHint AdminStatus
}
