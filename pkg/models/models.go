package models

import "time"

type DetectionType string

const (
	DetectionTypeFire  DetectionType = "fire"
	DetectionTypeSmoke DetectionType = "smoke"
)

func (t DetectionType) Valid() bool {
	switch t {
	case DetectionTypeFire, DetectionTypeSmoke:
		return true
	}
	return false
}

type AlertLevel string

const (
	AlertLevelInfo     AlertLevel = "info"
	AlertLevelWarning  AlertLevel = "warning"
	AlertLevelCritical AlertLevel = "critical"
)

func (l AlertLevel) Valid() bool {
	switch l {
	case AlertLevelInfo, AlertLevelWarning, AlertLevelCritical:
		return true
	}
	return false
}

type AlertStatus string

const (
	AlertStatusActive AlertStatus = "active"
	AlertStatusClosed AlertStatus = "closed"
)

type AdminStatus string

const (
	AdminStatusPending  AdminStatus = "pending"
	AdminStatusAccepted AdminStatus = "accepted"
	AdminStatusDeclined AdminStatus = "declined"
)

func (s AdminStatus) Valid() bool {
	switch s {
	case AdminStatusPending, AdminStatusAccepted, AdminStatusDeclined:
		return true
	}
	return false
}

// Terminal reports whether s is an admin decision rather than the waiting state.
func (s AdminStatus) Terminal() bool {
	return s == AdminStatusAccepted || s == AdminStatusDeclined
}

type FirefighterStatus string

const (
	FirefighterStatusPending      FirefighterStatus = "pending"
	FirefighterStatusResponding   FirefighterStatus = "responding"
	FirefighterStatusAcknowledged FirefighterStatus = "acknowledged"
)

// Rank orders firefighter statuses; a transition may never lower it. Unknown
// statuses rank -1.
func (s FirefighterStatus) Rank() int {
	switch s {
	case FirefighterStatusPending:
		return 0
	case FirefighterStatusResponding:
		return 1
	case FirefighterStatusAcknowledged:
		return 2
	}
	return -1
}

func (s FirefighterStatus) Valid() bool {
	return s.Rank() >= 0
}

type NotificationType string

const (
	NotificationTypeFirefighter NotificationType = "firefighter"
)

type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "pending"
	DeliveryStatusSent    DeliveryStatus = "sent"
)

type OnlineStatus string

const (
	OnlineStatusOnline  OnlineStatus = "online"
	OnlineStatusOffline OnlineStatus = "offline"
)

func (s OnlineStatus) Valid() bool {
	return s == OnlineStatusOnline || s == OnlineStatusOffline
}

// ResponseFallback decides the response-time baseline when an alert has no
// notification sent_at to measure from.
type ResponseFallback string

const (
	ResponseFallbackZero         ResponseFallback = "zero"
	ResponseFallbackAlertCreated ResponseFallback = "alert_created"
)

func (f ResponseFallback) Valid() bool {
	return f == ResponseFallbackZero || f == ResponseFallbackAlertCreated
}

type Camera struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"not null" json:"name"`
	Type        string       `gorm:"type:varchar(20);not null;default:'visual'" json:"type"`
	Location    string       `gorm:"not null" json:"location"`
	Latitude    *float64     `json:"latitude"`
	Longitude   *float64     `json:"longitude"`
	Status      OnlineStatus `gorm:"type:varchar(10);not null;default:'offline';check:status IN ('online','offline')" json:"status"`
	Temperature float64      `gorm:"default:22" json:"temperature"`
	FramePath   string       `json:"frame_path"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type Detection struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	CameraID   uint          `gorm:"index;not null" json:"camera_id"`
	CameraName string        `gorm:"not null" json:"camera_name"`
	Type       DetectionType `gorm:"column:detection_type;type:varchar(10);not null;check:detection_type IN ('fire','smoke')" json:"detection_type"`
	Confidence float64       `gorm:"not null;check:confidence >= 0 AND confidence <= 1" json:"confidence"`
	ImagePath  *string       `json:"image_path"`
	ClipPath   *string       `json:"clip_path"`
	Location   string        `json:"location"`
	Latitude   *float64      `json:"latitude"`
	Longitude  *float64      `json:"longitude"`
	Timestamp  time.Time     `gorm:"index;not null" json:"timestamp"`
}

// HasCoordinates reports whether the detection can be used as a dispatch origin.
func (d *Detection) HasCoordinates() bool {
	return d != nil && d.Latitude != nil && d.Longitude != nil
}

type Alert struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	DetectionID       *uint             `gorm:"uniqueIndex:idx_alerts_open_detection,where:status = 'active'" json:"detection_id"`
	Type              *DetectionType    `gorm:"type:varchar(10)" json:"type"`
	Location          string            `json:"location"`
	Confidence        *float64          `json:"confidence"`
	Level             AlertLevel        `gorm:"column:alert_level;type:varchar(10);not null;default:'info';check:alert_level IN ('info','warning','critical')" json:"alert_level"`
	Message           string            `gorm:"not null" json:"message"`
	Status            AlertStatus       `gorm:"type:varchar(10);not null;default:'active';index;check:status IN ('active','closed')" json:"status"`
	AdminStatus       AdminStatus       `gorm:"type:varchar(10);not null;default:'pending';check:admin_status IN ('pending','accepted','declined')" json:"admin_status"`
	FirefighterStatus FirefighterStatus `gorm:"type:varchar(15);not null;default:'pending';check:firefighter_status IN ('pending','responding','acknowledged')" json:"firefighter_status"`
	RespondedAt       *time.Time        `json:"responded_at"`
	AcknowledgedAt    *time.Time        `json:"acknowledged_at"`
	Timestamp         time.Time         `gorm:"index;not null" json:"timestamp"`

	Notifications []Notification `gorm:"foreignKey:AlertID;constraint:OnDelete:CASCADE" json:"-"`
}

type Notification struct {
	ID       uint             `gorm:"primaryKey" json:"id"`
	AlertID  uint             `gorm:"not null;uniqueIndex:idx_notifications_alert_decision" json:"alert_id"`
	Type     NotificationType `gorm:"type:varchar(20);not null;default:'firefighter'" json:"type"`
	Status   DeliveryStatus   `gorm:"type:varchar(10);not null;default:'pending'" json:"status"`
	Decision AdminStatus      `gorm:"type:varchar(10);not null;default:'pending';uniqueIndex:idx_notifications_alert_decision;check:decision IN ('pending','accepted','declined')" json:"decision"`
	SentAt   *time.Time       `json:"sent_at"`

	Targets []DispatchTarget `gorm:"foreignKey:NotificationID;constraint:OnDelete:CASCADE" json:"targets,omitempty"`
}

// DispatchTarget is one station selected when a notification fanned out.
type DispatchTarget struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	NotificationID   uint    `gorm:"not null;uniqueIndex:idx_dispatch_targets_notification_station" json:"notification_id"`
	StationID        uint    `gorm:"not null;uniqueIndex:idx_dispatch_targets_notification_station" json:"station_id"`
	Rank             int     `gorm:"not null" json:"rank"`
	DistanceKm       float64 `gorm:"not null" json:"distance_km"`
	FirefighterCount int     `gorm:"not null;default:0" json:"firefighter_count"`
}

type Station struct {
	ID             uint     `gorm:"primaryKey" json:"id"`
	Name           string   `gorm:"not null" json:"name"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	PersonnelCount int      `gorm:"default:0" json:"personnel_count"`

	Firefighters []Firefighter `gorm:"foreignKey:StationID" json:"-"`
}

func (s *Station) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

type Firefighter struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Phone     string       `gorm:"not null" json:"phone"`
	StationID uint         `gorm:"column:station;index;not null" json:"station"`
	Status    OnlineStatus `gorm:"type:varchar(10);not null;default:'online';check:status IN ('online','offline')" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

type Personnel struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Role      string       `gorm:"not null" json:"role"`
	Type      string       `gorm:"not null;default:'admin'" json:"type"`
	Phone     *string      `json:"phone"`
	StationID *uint        `gorm:"column:station" json:"station"`
	Status    OnlineStatus `gorm:"type:varchar(10);not null;default:'online';check:status IN ('online','offline')" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

func (Personnel) TableName() string {
	return "personnel"
}

type Activity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Message   string    `gorm:"not null" json:"message"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
}

func (Activity) TableName() string {
	return "activity"
}

type FirefighterAlertStat struct {
	ID                uint    `gorm:"primaryKey" json:"-"`
	Date              string  `gorm:"type:varchar(10);not null;uniqueIndex" json:"date"`
	RespondedCount    int     `gorm:"not null;default:0" json:"responded_count"`
	AcknowledgedCount int     `gorm:"not null;default:0" json:"acknowledged_count"`
	AvgResponseTime   float64 `gorm:"not null;default:0" json:"avg_response_time"`
}

func (FirefighterAlertStat) TableName() string {
	return "firefighter_stats"
}

type DetectionHistoryBucket struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	IntervalStart time.Time `gorm:"not null;uniqueIndex" json:"interval_start"`
	FireCount     int       `gorm:"not null;default:0" json:"fire_count"`
	SmokeCount    int       `gorm:"not null;default:0" json:"smoke_count"`
}

func (DetectionHistoryBucket) TableName() string {
	return "detection_history"
}

// DispatchPolicyID is the primary key of the single policy row.
const DispatchPolicyID uint = 1

type DispatchPolicy struct {
	ID               uint             `gorm:"primaryKey" json:"-"`
	StationCount     int              `gorm:"not null;default:2;check:station_count > 0" json:"station_count"`
	ResponseFallback ResponseFallback `gorm:"type:varchar(20);not null;default:'zero';check:response_fallback IN ('zero','alert_created')" json:"response_fallback"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func DefaultDispatchPolicy() DispatchPolicy {
	return DispatchPolicy{
		ID:               DispatchPolicyID,
		StationCount:     2,
		ResponseFallback: ResponseFallbackZero,
	}
}

// AllModels lists every table in migration order.
func AllModels() []any {
	return []any{
		&Camera{},
		&Station{},
		&Firefighter{},
		&Personnel{},
		&Detection{},
		&Alert{},
		&Notification{},
		&DispatchTarget{},
		&Activity{},
		&FirefighterAlertStat{},
		&DetectionHistoryBucket{},
		&DispatchPolicy{},
	}
}
