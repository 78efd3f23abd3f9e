package fire

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/metrics"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
)

const (
	dashboardDetectionLimit = 100
	dashboardAlertLimit     = 20
	dashboardActivityLimit  = 50
)

func count(q *gorm.DB, op string) (int64, error) {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, storageError(op, err)
	}
	return n, nil
}

func (f *Fire) dashboardStats(conn *gorm.DB) (models.DashboardStats, error) {
	now := f.now()
	start, end := f.dayBounds(now)
	stats := models.DashboardStats{Date: f.dayKey(now)}

	today := func() *gorm.DB {
		return conn.Model(&models.Detection{}).Where("timestamp >= ? AND timestamp < ?", start, end)
	}

	var err error
	if stats.DetectionsToday, err = count(today(), "count detections"); err != nil {
		return stats, err
	}
	if stats.FireToday, err = count(today().Where("detection_type = ?", models.DetectionTypeFire), "count fire detections"); err != nil {
		return stats, err
	}
	if stats.SmokeToday, err = count(today().Where("detection_type = ?", models.DetectionTypeSmoke), "count smoke detections"); err != nil {
		return stats, err
	}
	if stats.ActiveCameras, err = count(conn.Model(&models.Camera{}).Where("status = ?", models.OnlineStatusOnline), "count cameras"); err != nil {
		return stats, err
	}
	if stats.PersonnelOnline, err = count(conn.Model(&models.Personnel{}).Where("status = ?", models.OnlineStatusOnline), "count personnel"); err != nil {
		return stats, err
	}

	daily, err := f.Stats.DailyStats(now)
	if err != nil {
		return stats, err
	}
	stats.RespondedCount = daily.RespondedCount
	stats.AcknowledgedCount = daily.AcknowledgedCount
	stats.AvgResponseTime = daily.AvgResponseTime
	return stats, nil
}

// snapshot assembles the whole dashboard view. Every collection is non-nil so
// it encodes as [] rather than null.
func (f *Fire) snapshot() (*models.DashboardState, error) {
	logger := common.GetCoreLogger(common.LoggerCategoryFireDashboard)
	conn := f.Db.Conn
	now := f.now()

	state := &models.DashboardState{LastUpdate: now}

	if err := conn.Order("id").Find(&state.Cameras).Error; err != nil {
		return nil, storageError("list cameras", err)
	}
	if err := conn.Order("timestamp desc, id desc").Limit(dashboardDetectionLimit).Find(&state.Detections).Error; err != nil {
		return nil, storageError("list detections", err)
	}
	alerts, err := listActiveAlerts(conn, dashboardAlertLimit)
	if err != nil {
		return nil, err
	}
	state.Alerts = alerts
	if err := conn.Order("timestamp desc, id desc").Limit(dashboardActivityLimit).Find(&state.Activity).Error; err != nil {
		return nil, storageError("list activity", err)
	}
	if err := conn.Order("station, name, id").Find(&state.Firefighters).Error; err != nil {
		return nil, storageError("list firefighters", err)
	}
	if err := conn.Order("type, name, id").Find(&state.Personnel).Error; err != nil {
		return nil, storageError("list personnel", err)
	}
	if err := conn.Order("id").Find(&state.Stations).Error; err != nil {
		return nil, storageError("list stations", err)
	}

	if state.Stats, err = f.dashboardStats(conn); err != nil {
		return nil, err
	}
	if state.DetectionHistory, err = f.Stats.DetectionHistogram(now, defaultHistogramHours, defaultHistogramMinutes); err != nil {
		return nil, err
	}

	state.Cameras = emptyIfNil(state.Cameras)
	state.Detections = emptyIfNil(state.Detections)
	state.Activity = emptyIfNil(state.Activity)
	state.Firefighters = emptyIfNil(state.Firefighters)
	state.Personnel = emptyIfNil(state.Personnel)
	state.Stations = emptyIfNil(state.Stations)
	state.DetectionHistory = emptyIfNil(state.DetectionHistory)

	active, err := count(conn.Model(&models.Alert{}).Where("status = ?", models.AlertStatusActive), "count active alerts")
	if err != nil {
		return nil, err
	}
	metrics.ActiveAlerts.Set(float64(active))

	logger.Debug("Dashboard snapshot built",
		zap.Int("alerts", len(state.Alerts)),
		zap.Int("detections", len(state.Detections)),
		zap.Int64("detections_today", state.Stats.DetectionsToday),
	)
	return state, nil
}

type IDashboardImpl struct {
	fire *Fire
}

func (id *IDashboardImpl) Snapshot() (*models.DashboardState, error) {
	return id.fire.snapshot()
}

func (f *Fire) GetIDashboard() IDashboard {
	return &IDashboardImpl{fire: f}
}
