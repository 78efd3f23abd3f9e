package fire

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/metrics"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
)

const defaultAlertLocation = "Unknown location"

var typeTitle = cases.Title(language.English)

func typeIcon(t models.DetectionType) string {
	if t == models.DetectionTypeFire {
		return "🔥"
	}
	return "💨"
}

// alertMessage renders the default message, e.g. "🔥 Fire alert at Camera 1".
func alertMessage(t *models.DetectionType, location string) string {
	if t == nil {
		return fmt.Sprintf("⚠️ Alert at %s", location)
	}
	return fmt.Sprintf("%s %s alert at %s", typeIcon(*t), typeTitle.String(string(*t)), location)
}

func findAlert(conn *gorm.DB, alertID uint) (*models.Alert, error) {
	var alert models.Alert
	err := conn.First(&alert, alertID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("alert", alertID)
	}
	if err != nil {
		return nil, storageError("load alert", err)
	}
	return &alert, nil
}

func findDetection(conn *gorm.DB, detectionID uint) (*models.Detection, error) {
	var detection models.Detection
	err := conn.First(&detection, detectionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("detection", detectionID)
	}
	if err != nil {
		return nil, storageError("load detection", err)
	}
	return &detection, nil
}

// alertDetection loads the source detection of an alert; nil when the alert
// was raised manually.
func alertDetection(conn *gorm.DB, alert *models.Alert) (*models.Detection, error) {
	if alert.DetectionID == nil {
		return nil, nil
	}
	return findDetection(conn, *alert.DetectionID)
}

func findOpenAlertForDetection(conn *gorm.DB, detectionID uint) (*models.Alert, error) {
	var alerts []models.Alert
	err := conn.
		Where("detection_id = ? AND status = ?", detectionID, models.AlertStatusActive).
		Limit(1).
		Find(&alerts).Error
	if err != nil {
		return nil, storageError("load open alert", err)
	}
	if len(alerts) == 0 {
		return nil, nil
	}
	return &alerts[0], nil
}

func logActivity(tx *gorm.DB, activity models.Activity) error {
	return storageError("insert activity", tx.Create(&activity).Error)
}

func validateCreateInput(input *models.CreateAlertInput) error {
	if input.Level == "" {
		input.Level = models.AlertLevelInfo
	}
	if !input.Level.Valid() {
		return validationError("unknown alert level %q", input.Level)
	}
	if input.AdminStatusHint == "" {
		input.AdminStatusHint = models.AdminStatusPending
	}
	if !input.AdminStatusHint.Valid() {
		return validationError("unknown admin status %q", input.AdminStatusHint)
	}
	if input.Type != nil && !input.Type.Valid() {
		return validationError("unknown detection type %q", *input.Type)
	}
	input.Location = strings.TrimSpace(input.Location)
	input.Message = strings.TrimSpace(input.Message)
	return nil
}

// createAlertTx inserts the alert, or returns the open alert already raised for
// the same detection. created is false in the latter case.
func (f *Fire) createAlertTx(tx *gorm.DB, input models.CreateAlertInput) (alert *models.Alert, created bool, decided bool, err error) {
	if err := validateCreateInput(&input); err != nil {
		return nil, false, false, err
	}

	var detection *models.Detection
	if input.DetectionID != nil {
		if detection, err = findDetection(tx, *input.DetectionID); err != nil {
			return nil, false, false, err
		}
		existing, err := findOpenAlertForDetection(tx, detection.ID)
		if err != nil {
			return nil, false, false, err
		}
		if existing != nil {
			alert = existing
		}
	}

	if alert == nil {
		alertType := input.Type
		location := input.Location
		var confidence *float64
		if detection != nil {
			t := detection.Type
			alertType = &t
			conf := detection.Confidence
			confidence = &conf
			if location == "" {
				location = detection.Location
			}
		}
		if alertType == nil && location == "" && input.Message == "" {
			return nil, false, false, validationError("alert needs a detection, a type, a location or a message")
		}
		if location == "" {
			location = defaultAlertLocation
		}
		message := input.Message
		if message == "" {
			message = alertMessage(alertType, location)
		}

		alert = &models.Alert{
			DetectionID:       input.DetectionID,
			Type:              alertType,
			Location:          location,
			Confidence:        confidence,
			Level:             input.Level,
			Message:           message,
			Status:            models.AlertStatusActive,
			AdminStatus:       models.AdminStatusPending,
			FirefighterStatus: models.FirefighterStatusPending,
			Timestamp:         f.now(),
		}
		if err := tx.Create(alert).Error; err != nil {
			return nil, false, false, storageError("insert alert", err)
		}
		if err := logActivity(tx, models.Activity{Message: "New alert: " + message, Timestamp: alert.Timestamp}); err != nil {
			return nil, false, false, err
		}
		created = true
	}

	if input.AdminStatusHint.Terminal() {
		if decided, err = f.decideTx(tx, alert, input.AdminStatusHint); err != nil {
			return nil, false, false, err
		}
	}
	return alert, created, decided, nil
}

func (f *Fire) createAlert(input models.CreateAlertInput) (*models.Alert, error) {
	logger := common.GetCoreLogger(common.LoggerCategoryFireAlert)

	var (
		alert   *models.Alert
		created bool
		decided bool
	)
	err := f.Db.Conn.Transaction(func(tx *gorm.DB) error {
		var err error
		alert, created, decided, err = f.createAlertTx(tx, input)
		return err
	})
	if err != nil {
		logger.Warn("Create alert failed", zap.Error(err))
		return nil, storageError("create alert", err)
	}

	if created {
		metrics.RecordAlertCreated(string(alert.Level))
		logger.Info("Alert created", zap.Uint("alert_id", alert.ID), zap.String("message", alert.Message))
	} else {
		logger.Info("Alert already open for detection", zap.Uint("alert_id", alert.ID))
	}
	if decided {
		metrics.RecordDecision(string(alert.AdminStatus))
	}
	return alert, nil
}

// decideTx applies an admin decision to alert. It reports false when the
// decision was already in place. An accepted alert may still be declined,
// a declined alert is closed for good.
func (f *Fire) decideTx(tx *gorm.DB, alert *models.Alert, decision models.AdminStatus) (bool, error) {
	if !decision.Terminal() {
		return false, validationError("decision must be accepted or declined, got %q", decision)
	}
	if alert.AdminStatus == decision {
		return false, nil
	}
	if alert.AdminStatus == models.AdminStatusDeclined {
		return false, invalidTransitionError("alert #%d was declined and is closed", alert.ID)
	}

	updates := map[string]any{"admin_status": decision}
	if decision == models.AdminStatusDeclined {
		updates["status"] = models.AlertStatusClosed
	}
	res := tx.Model(&models.Alert{}).
		Where("id = ? AND admin_status <> ?", alert.ID, decision).
		Updates(updates)
	if res.Error != nil {
		return false, storageError("update admin status", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if decision == models.AdminStatusAccepted {
		detection, err := alertDetection(tx, alert)
		if err != nil {
			return false, err
		}
		if _, err := f.Dispatch.Notify(tx, alert.ID, detection); err != nil {
			return false, err
		}
	} else {
		if _, err := f.Dispatch.RecordDecision(tx, alert.ID, decision); err != nil {
			return false, err
		}
	}

	if err := logActivity(tx, models.Activity{
		Message:   fmt.Sprintf("[alert_%s] Alert #%d %s by admin", decision, alert.ID, decision),
		Timestamp: f.now(),
	}); err != nil {
		return false, err
	}

	alert.AdminStatus = decision
	if decision == models.AdminStatusDeclined {
		alert.Status = models.AlertStatusClosed
	}
	return true, nil
}

func (f *Fire) decide(alertID uint, decision models.AdminStatus) error {
	logger := common.GetCoreLogger(common.LoggerCategoryFireAlert)

	if !decision.Terminal() {
		return validationError("decision must be accepted or declined, got %q", decision)
	}

	var changed bool
	err := f.Db.Conn.Transaction(func(tx *gorm.DB) error {
		alert, err := findAlert(tx, alertID)
		if err != nil {
			return err
		}
		changed, err = f.decideTx(tx, alert, decision)
		return err
	})
	if err != nil {
		logger.Warn("Admin decision rejected",
			zap.Uint("alert_id", alertID),
			zap.String("decision", string(decision)),
			zap.Error(err),
		)
		return storageError("decide alert", err)
	}

	if changed {
		metrics.RecordDecision(string(decision))
		logger.Info("Admin decision applied", zap.Uint("alert_id", alertID), zap.String("decision", string(decision)))
	} else {
		logger.Debug("Admin decision already in place", zap.Uint("alert_id", alertID), zap.String("decision", string(decision)))
	}
	return nil
}

// setTimestampOnce stamps column on the alert only if it is still NULL. The
// update count tells whether this call was the first.
func setTimestampOnce(tx *gorm.DB, alertID uint, column string, status models.FirefighterStatus, at any) (bool, error) {
	res := tx.Model(&models.Alert{}).
		Where("id = ? AND "+column+" IS NULL", alertID).
		Updates(map[string]any{column: at, "firefighter_status": status})
	if res.Error != nil {
		return false, storageError("update "+column, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (f *Fire) updateFirefighterStatus(alertID uint, status models.FirefighterStatus) (models.TransitionResult, error) {
	logger := common.GetCoreLogger(common.LoggerCategoryFireAlert)

	var result models.TransitionResult
	if !status.Valid() {
		return result, validationError("unknown firefighter status %q", status)
	}

	err := f.Db.Conn.Transaction(func(tx *gorm.DB) error {
		alert, err := findAlert(tx, alertID)
		if err != nil {
			return err
		}
		if alert.Status == models.AlertStatusClosed {
			return invalidTransitionError("alert #%d is closed", alertID)
		}
		if status == models.FirefighterStatusPending {
			return invalidTransitionError("firefighter status cannot return to pending")
		}
		if status.Rank() < alert.FirefighterStatus.Rank() {
			// a stale repeat of a status already stamped changes nothing
			if status == models.FirefighterStatusResponding && alert.RespondedAt != nil {
				return nil
			}
			return invalidTransitionError("firefighter status cannot go from %s back to %s", alert.FirefighterStatus, status)
		}

		now := f.now()
		switch status {
		case models.FirefighterStatusResponding:
			result.RespondedJustSet, err = setTimestampOnce(tx, alertID, "responded_at", status, now)
		case models.FirefighterStatusAcknowledged:
			result.AckJustSet, err = setTimestampOnce(tx, alertID, "acknowledged_at", status, now)
		}
		if err != nil {
			return err
		}
		if !result.Any() {
			return nil
		}

		if err := f.Stats.OnFirefighterTransition(tx, now, status, alertID, result); err != nil {
			return err
		}
		return logActivity(tx, models.Activity{
			Message:   fmt.Sprintf("Firefighters %s to alert #%d", status, alertID),
			Timestamp: now,
		})
	})
	if err != nil {
		logger.Warn("Firefighter status rejected",
			zap.Uint("alert_id", alertID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return models.TransitionResult{}, storageError("update firefighter status", err)
	}

	if result.Any() {
		metrics.RecordFirefighterTransition(string(status))
	}
	logger.Info("Firefighter status updated",
		zap.Uint("alert_id", alertID),
		zap.String("status", string(status)),
		zap.Reflect("result", result),
	)
	return result, nil
}

func (f *Fire) getAlert(alertID uint) (*models.Alert, error) {
	return findAlert(f.Db.Conn, alertID)
}

func listActiveAlerts(conn *gorm.DB, limit int) ([]models.Alert, error) {
	var alerts []models.Alert
	q := conn.Where("status = ?", models.AlertStatusActive).Order("timestamp desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&alerts).Error; err != nil {
		return nil, storageError("list active alerts", err)
	}
	return emptyIfNil(alerts), nil
}

func (f *Fire) listActive(limit int) ([]models.Alert, error) {
	return listActiveAlerts(f.Db.Conn, limit)
}

// listFirefighterVisible returns active accepted alerts that have an accepted
// notification on record.
func (f *Fire) listFirefighterVisible() ([]models.Alert, error) {
	var alerts []models.Alert
	err := f.Db.Conn.
		Where("status = ? AND admin_status = ?", models.AlertStatusActive, models.AdminStatusAccepted).
		Where("EXISTS (SELECT 1 FROM notifications n WHERE n.alert_id = alerts.id AND n.decision = ?)", models.AdminStatusAccepted).
		Order("timestamp desc, id desc").
		Find(&alerts).Error
	if err != nil {
		return nil, storageError("list firefighter alerts", err)
	}
	return emptyIfNil(alerts), nil
}

type IAlertImpl struct {
	fire *Fire
}

func (ia *IAlertImpl) Create(input models.CreateAlertInput) (*models.Alert, error) {
	return ia.fire.createAlert(input)
}

func (ia *IAlertImpl) Decide(alertID uint, decision models.AdminStatus) error {
	return ia.fire.decide(alertID, decision)
}

func (ia *IAlertImpl) UpdateFirefighterStatus(alertID uint, status models.FirefighterStatus) (models.TransitionResult, error) {
	return ia.fire.updateFirefighterStatus(alertID, status)
}

func (ia *IAlertImpl) GetAlert(alertID uint) (*models.Alert, error) {
	return ia.fire.getAlert(alertID)
}

func (ia *IAlertImpl) ListActive(limit int) ([]models.Alert, error) {
	return ia.fire.listActive(limit)
}

func (ia *IAlertImpl) ListFirefighterVisible() ([]models.Alert, error) {
	return ia.fire.listFirefighterVisible()
}

func (f *Fire) GetIAlert() IAlert {
	return &IAlertImpl{fire: f}
}
