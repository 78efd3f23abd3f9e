package fire

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"firewatch.xyz/alert-dispatch-service/pkg/bucket"
	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/metrics"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
)

const (
	defaultHistogramHours   = 24
	defaultHistogramMinutes = 30
)

func ensureDailyStat(tx *gorm.DB, date string) (*models.FirefighterAlertStat, error) {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoNothing: true,
	}).Create(&models.FirefighterAlertStat{Date: date}).Error
	if err != nil {
		return nil, storageError("insert daily stats", err)
	}

	var stat models.FirefighterAlertStat
	if err := tx.Where("date = ?", date).First(&stat).Error; err != nil {
		return nil, storageError("load daily stats", err)
	}
	return &stat, nil
}

// responseMinutes measures from the latest sent notification of the alert to
// at. Without one, the dispatch policy picks the baseline.
func (f *Fire) responseMinutes(tx *gorm.DB, alertID uint, at time.Time) (float64, error) {
	logger := common.GetCoreLogger(common.LoggerCategoryFireStats)

	var notifications []models.Notification
	err := tx.
		Where("alert_id = ? AND sent_at IS NOT NULL", alertID).
		Order("id desc").
		Limit(1).
		Find(&notifications).Error
	if err != nil {
		return 0, storageError("load notification", err)
	}

	var since time.Time
	if len(notifications) > 0 {
		since = *notifications[0].SentAt
	} else {
		policy, err := getPolicy(tx)
		if err != nil {
			return 0, err
		}
		logger.Warn("No sent notification to measure response from",
			zap.Uint("alert_id", alertID),
			zap.String("fallback", string(policy.ResponseFallback)),
		)
		if policy.ResponseFallback != models.ResponseFallbackAlertCreated {
			return 0, nil
		}
		alert, err := findAlert(tx, alertID)
		if err != nil {
			return 0, err
		}
		since = alert.Timestamp
	}

	minutes := at.Sub(since).Minutes()
	if minutes < 0 {
		minutes = 0
	}
	return minutes, nil
}

// onFirefighterTransition folds a first-time status change into the stats row
// of the local day containing at. Repeats leave the counters untouched.
func (f *Fire) onFirefighterTransition(tx *gorm.DB, at time.Time, status models.FirefighterStatus, alertID uint, result models.TransitionResult) error {
	logger := common.GetCoreLogger(common.LoggerCategoryFireStats)

	switch {
	case status == models.FirefighterStatusResponding && result.RespondedJustSet:
	case status == models.FirefighterStatusAcknowledged && result.AckJustSet:
	default:
		return nil
	}

	date := f.dayKey(at)
	stat, err := ensureDailyStat(tx, date)
	if err != nil {
		return err
	}

	if status == models.FirefighterStatusAcknowledged {
		err := tx.Model(&models.FirefighterAlertStat{}).
			Where("id = ?", stat.ID).
			Update("acknowledged_count", gorm.Expr("acknowledged_count + 1")).Error
		if err != nil {
			return storageError("update daily stats", err)
		}
		logger.Info("Acknowledgement counted", zap.String("date", date), zap.Uint("alert_id", alertID))
		return nil
	}

	minutes, err := f.responseMinutes(tx, alertID, at)
	if err != nil {
		return err
	}
	count := stat.RespondedCount + 1
	avg := (stat.AvgResponseTime*float64(stat.RespondedCount) + minutes) / float64(count)

	err = tx.Model(&models.FirefighterAlertStat{}).
		Where("id = ?", stat.ID).
		Updates(map[string]any{"responded_count": count, "avg_response_time": avg}).Error
	if err != nil {
		return storageError("update daily stats", err)
	}

	metrics.RecordResponse(minutes)
	logger.Info("Response counted",
		zap.String("date", date),
		zap.Uint("alert_id", alertID),
		zap.Float64("response_minutes", minutes),
		zap.Float64("avg_response_time", avg),
	)
	return nil
}

// countDetection adds one to the fire or smoke count of the 30 minute bucket
// the detection falls in.
func (f *Fire) countDetection(tx *gorm.DB, detection *models.Detection) error {
	if !detection.Type.Valid() {
		return validationError("unknown detection type %q", detection.Type)
	}

	fire, smoke := 0, 0
	if detection.Type == models.DetectionTypeFire {
		fire = 1
	} else {
		smoke = 1
	}

	row := models.DetectionHistoryBucket{
		IntervalStart: bucket.Floor(detection.Timestamp, bucket.DefaultWidth),
		FireCount:     fire,
		SmokeCount:    smoke,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "interval_start"}},
		DoUpdates: clause.Assignments(map[string]any{
			"fire_count":  gorm.Expr("fire_count + ?", fire),
			"smoke_count": gorm.Expr("smoke_count + ?", smoke),
		}),
	}).Create(&row).Error
	return storageError("upsert detection history", err)
}

// detectionHistogram returns every bucket of the trailing window, oldest first,
// with empty buckets zero-filled.
func (f *Fire) detectionHistogram(now time.Time, windowHours, bucketMinutes int) ([]models.HistogramBucket, error) {
	width := time.Duration(bucketMinutes) * time.Minute
	// stored rows are bucket.DefaultWidth wide and can only fold into multiples of it
	if width <= 0 || width%bucket.DefaultWidth != 0 {
		return nil, validationError("bucket width must be a multiple of %s, got %d minutes", bucket.DefaultWidth, bucketMinutes)
	}
	starts, err := bucket.Window(now, time.Duration(windowHours)*time.Hour, width)
	if err != nil {
		return nil, validationError("%s", err.Error())
	}

	var rows []models.DetectionHistoryBucket
	err = f.Db.Conn.
		Where("interval_start >= ? AND interval_start < ?", starts[0], starts[len(starts)-1].Add(width)).
		Find(&rows).Error
	if err != nil {
		return nil, storageError("load detection history", err)
	}

	index := make(map[int64]int, len(starts))
	buckets := make([]models.HistogramBucket, len(starts))
	for i, start := range starts {
		index[start.UnixMilli()] = i
		buckets[i] = models.HistogramBucket{IntervalStart: start}
	}
	for _, row := range rows {
		i, ok := index[bucket.Floor(row.IntervalStart, width).UnixMilli()]
		if !ok {
			continue
		}
		buckets[i].FireCount += row.FireCount
		buckets[i].SmokeCount += row.SmokeCount
	}
	return buckets, nil
}

func (f *Fire) dailyStats(day time.Time) (*models.FirefighterAlertStat, error) {
	date := f.dayKey(day)
	var stat models.FirefighterAlertStat
	err := f.Db.Conn.Where("date = ?", date).First(&stat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.FirefighterAlertStat{Date: date}, nil
	}
	if err != nil {
		return nil, storageError("load daily stats", err)
	}
	return &stat, nil
}

type IStatsImpl struct {
	fire *Fire
}

func (is *IStatsImpl) OnFirefighterTransition(tx *gorm.DB, at time.Time, status models.FirefighterStatus, alertID uint, result models.TransitionResult) error {
	return is.fire.onFirefighterTransition(tx, at, status, alertID, result)
}

func (is *IStatsImpl) RecordDetection(tx *gorm.DB, detection *models.Detection) error {
	return is.fire.countDetection(tx, detection)
}

func (is *IStatsImpl) DetectionHistogram(now time.Time, windowHours, bucketMinutes int) ([]models.HistogramBucket, error) {
	return is.fire.detectionHistogram(now, windowHours, bucketMinutes)
}

func (is *IStatsImpl) DailyStats(day time.Time) (*models.FirefighterAlertStat, error) {
	return is.fire.dailyStats(day)
}

func (f *Fire) GetIStats() IStats {
	return &IStatsImpl{fire: f}
}
