package fire

import (
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/geo"
	"firewatch.xyz/alert-dispatch-service/pkg/metrics"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
)

func validateDetectionInput(input *models.DetectionInput) error {
	if !input.Type.Valid() {
		return validationError("unknown detection type %q", input.Type)
	}
	if input.Confidence < 0 || input.Confidence > 1 {
		return validationError("confidence must be within [0, 1], got %v", input.Confidence)
	}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return validationError("latitude and longitude must be given together")
	}
	if input.Latitude != nil && !(geo.Point{Lat: *input.Latitude, Lon: *input.Longitude}).Valid() {
		return validationError("invalid coordinates (%f, %f)", *input.Latitude, *input.Longitude)
	}
	if input.AdminStatusHint != "" && !input.AdminStatusHint.Valid() {
		return validationError("unknown admin status %q", input.AdminStatusHint)
	}
	input.CameraName = strings.TrimSpace(input.CameraName)
	input.Location = strings.TrimSpace(input.Location)
	if input.CameraName == "" {
		return validationError("camera_name is required")
	}
	return nil
}

// recordDetection stores a detection and counts it in the history. With
// AutoAlert set the alert is raised in the same transaction.
func (f *Fire) recordDetection(input models.DetectionInput) (*models.Detection, *models.Alert, error) {
	logger := common.GetCoreLogger(common.LoggerCategoryFireDetection)

	if err := validateDetectionInput(&input); err != nil {
		return nil, nil, err
	}

	timestamp := input.Timestamp.UTC()
	if input.Timestamp.IsZero() {
		timestamp = f.now()
	}
	detection := models.Detection{
		CameraID:   input.CameraID,
		CameraName: input.CameraName,
		Type:       input.Type,
		Confidence: input.Confidence,
		ImagePath:  input.ImagePath,
		ClipPath:   input.ClipPath,
		Location:   input.Location,
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
		Timestamp:  timestamp,
	}

	var (
		alert   *models.Alert
		created bool
		decided bool
	)
	err := f.Db.Conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&detection).Error; err != nil {
			return storageError("insert detection", err)
		}
		if err := f.Stats.RecordDetection(tx, &detection); err != nil {
			return err
		}
		if !input.AutoAlert {
			return nil
		}
		var err error
		alert, created, decided, err = f.createAlertTx(tx, models.CreateAlertInput{
			DetectionID:     &detection.ID,
			AdminStatusHint: input.AdminStatusHint,
		})
		return err
	})
	if err != nil {
		logger.Warn("Record detection failed", zap.String("camera", input.CameraName), zap.Error(err))
		return nil, nil, storageError("record detection", err)
	}

	metrics.RecordDetection(string(detection.Type))
	if created {
		metrics.RecordAlertCreated(string(alert.Level))
	}
	if decided {
		metrics.RecordDecision(string(alert.AdminStatus))
	}

	fields := []zap.Field{
		zap.Uint("detection_id", detection.ID),
		zap.String("type", string(detection.Type)),
		zap.Float64("confidence", detection.Confidence),
		zap.String("camera", detection.CameraName),
	}
	if alert != nil {
		fields = append(fields, zap.Uint("alert_id", alert.ID))
	}
	logger.Info("Detection recorded", fields...)
	return &detection, alert, nil
}

func (f *Fire) listDetections(limit int) ([]models.Detection, error) {
	var detections []models.Detection
	q := f.Db.Conn.Order("timestamp desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&detections).Error; err != nil {
		return nil, storageError("list detections", err)
	}
	return emptyIfNil(detections), nil
}

type IDetectionImpl struct {
	fire *Fire
}

func (id *IDetectionImpl) RecordDetection(input models.DetectionInput) (*models.Detection, *models.Alert, error) {
	return id.fire.recordDetection(input)
}

func (id *IDetectionImpl) ListDetections(limit int) ([]models.Detection, error) {
	return id.fire.listDetections(limit)
}

func (f *Fire) GetIDetection() IDetection {
	return &IDetectionImpl{fire: f}
}
