// Package fire is the alert lifecycle and dispatch engine: detections become
// alerts, alerts pass the admin gate, accepted alerts fan out to the nearest
// stations, and firefighter responses feed the daily statistics.
package fire

import (
	"time"

	"gorm.io/gorm"

	"firewatch.xyz/alert-dispatch-service/pkg/db"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
)

type IAlert interface {
	Create(input models.CreateAlertInput) (*models.Alert, error)
	Decide(alertID uint, decision models.AdminStatus) error
	UpdateFirefighterStatus(alertID uint, status models.FirefighterStatus) (models.TransitionResult, error)
	GetAlert(alertID uint) (*models.Alert, error)
	ListActive(limit int) ([]models.Alert, error)
	ListFirefighterVisible() ([]models.Alert, error)
}

// IDispatcher methods taking a *gorm.DB run inside the caller's transaction.
type IDispatcher interface {
	Notify(tx *gorm.DB, alertID uint, detection *models.Detection) (*models.Notification, error)
	RecordDecision(tx *gorm.DB, alertID uint, decision models.AdminStatus) (*models.Notification, error)
	NearestStations(lat, lon float64, k int) ([]models.StationDistance, error)
	FirefightersFor(stationIDs []uint) ([]models.Firefighter, error)
	DispatchPlan(alertID uint) (*models.DispatchPlan, error)
}

type IStats interface {
	OnFirefighterTransition(tx *gorm.DB, at time.Time, status models.FirefighterStatus, alertID uint, result models.TransitionResult) error
	RecordDetection(tx *gorm.DB, detection *models.Detection) error
	DetectionHistogram(now time.Time, windowHours, bucketMinutes int) ([]models.HistogramBucket, error)
	DailyStats(day time.Time) (*models.FirefighterAlertStat, error)
}

type IDashboard interface {
	Snapshot() (*models.DashboardState, error)
}

type IDetection interface {
	RecordDetection(input models.DetectionInput) (*models.Detection, *models.Alert, error)
	ListDetections(limit int) ([]models.Detection, error)
}

type IRoster interface {
	UpsertStation(station *models.Station) error
	ListStations() ([]models.Station, error)
	CreateFirefighter(firefighter *models.Firefighter) error
	UpdateFirefighter(firefighter *models.Firefighter) error
	DeleteFirefighter(id uint) error
	ListFirefighters() ([]models.Firefighter, error)
	CreatePersonnel(person *models.Personnel) error
	UpdatePersonnel(person *models.Personnel) error
	DeletePersonnel(id uint) error
	ListPersonnel() ([]models.Personnel, error)
	SetCameraStatus(cameraID uint, status models.OnlineStatus) error
}

type IPolicy interface {
	GetPolicy() (*models.DispatchPolicy, error)
	UpsertPolicy(input *models.DispatchPolicy) error
}

// Options carries the clock and the zone daily statistics are bucketed in.
type Options struct {
	Now      func() time.Time
	Location *time.Location
}

type Fire struct {
	Db        db.DB
	Options   Options
	Alert     IAlert
	Dispatch  IDispatcher
	Stats     IStats
	Dashboard IDashboard
	Detection IDetection
	Roster    IRoster
	Policy    IPolicy
}

type ServiceOpts struct {
	Alert     IAlert
	Dispatch  IDispatcher
	Stats     IStats
	Dashboard IDashboard
	Detection IDetection
	Roster    IRoster
	Policy    IPolicy
}

func (f *Fire) WithServices(opts ServiceOpts) *Fire {
	if opts.Alert != nil {
		f.Alert = opts.Alert
	}
	if opts.Dispatch != nil {
		f.Dispatch = opts.Dispatch
	}
	if opts.Stats != nil {
		f.Stats = opts.Stats
	}
	if opts.Dashboard != nil {
		f.Dashboard = opts.Dashboard
	}
	if opts.Detection != nil {
		f.Detection = opts.Detection
	}
	if opts.Roster != nil {
		f.Roster = opts.Roster
	}
	if opts.Policy != nil {
		f.Policy = opts.Policy
	}
	return f
}

// WithDefaultServices wires every service to its database-backed implementation.
func (f *Fire) WithDefaultServices() *Fire {
	return f.WithServices(ServiceOpts{
		Alert:     f.GetIAlert(),
		Dispatch:  f.GetIDispatcher(),
		Stats:     f.GetIStats(),
		Dashboard: f.GetIDashboard(),
		Detection: f.GetIDetection(),
		Roster:    f.GetIRoster(),
		Policy:    f.GetIPolicy(),
	})
}

func (f *Fire) now() time.Time {
	if f.Options.Now != nil {
		return f.Options.Now().UTC()
	}
	return time.Now().UTC()
}

func (f *Fire) location() *time.Location {
	if f.Options.Location != nil {
		return f.Options.Location
	}
	return time.Local
}

// dayKey is the stats row key for the local day containing t.
func (f *Fire) dayKey(t time.Time) string {
	return t.In(f.location()).Format(time.DateOnly)
}

// dayBounds returns the UTC instants bounding the local day containing t.
func (f *Fire) dayBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(f.location())
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, f.location())
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
