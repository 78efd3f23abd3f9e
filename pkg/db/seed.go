package db

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
)

func ptr[T any](v T) *T {
	return &v
}

func defaultStations() []models.Station {
	return []models.Station{
		{ID: 1, Name: "Fire Station 1", Latitude: ptr(14.5950), Longitude: ptr(120.9800), PersonnelCount: 6},
		{ID: 2, Name: "Fire Station 2", Latitude: ptr(14.6040), Longitude: ptr(120.9900), PersonnelCount: 6},
	}
}

func defaultCameras() []models.Camera {
	return []models.Camera{
		{
			ID: 1, Name: "Camera 1 - Visual ML", Type: "visual", Location: "Building A - Warehouse",
			Latitude: ptr(14.6005), Longitude: ptr(120.9850), Status: models.OnlineStatusOffline,
			Temperature: 22.0, FramePath: "camera_frames/camera1_live.jpg",
		},
		{
			ID: 2, Name: "Camera 2 - Thermal", Type: "thermal", Location: "Building A - Warehouse",
			Latitude: ptr(14.6010), Longitude: ptr(120.9855), Status: models.OnlineStatusOffline,
			Temperature: 22.5, FramePath: "camera_frames/camera2_live.jpg",
		},
	}
}

func defaultPersonnel() []models.Personnel {
	return []models.Personnel{
		{Name: "Admin Johnson", Role: "System Administrator", Type: "admin", Status: models.OnlineStatusOnline},
		{Name: "Admin Chen", Role: "Operations Manager", Type: "admin", Status: models.OnlineStatusOnline},
	}
}

func seedIfEmpty[T any](tx *gorm.DB, rows []T) (bool, error) {
	var count int64
	if err := tx.Model(new(T)).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	return true, tx.Create(&rows).Error
}

// SeedDefaults inserts the reference stations, cameras and admin personnel into
// empty tables and makes sure the dispatch policy row exists.
func (d *DB) SeedDefaults(policy models.DispatchPolicy) error {
	logger := common.GetLoggerWith(common.LoggerNameDB)

	return d.Conn.Transaction(func(tx *gorm.DB) error {
		seeded, err := seedIfEmpty(tx, defaultStations())
		if err != nil {
			return fmt.Errorf("seed stations: %w", err)
		}
		logger.Info("Stations checked", zap.Bool("seeded", seeded))

		if seeded, err = seedIfEmpty(tx, defaultCameras()); err != nil {
			return fmt.Errorf("seed cameras: %w", err)
		}
		logger.Info("Cameras checked", zap.Bool("seeded", seeded))

		if seeded, err = seedIfEmpty(tx, defaultPersonnel()); err != nil {
			return fmt.Errorf("seed personnel: %w", err)
		}
		logger.Info("Personnel checked", zap.Bool("seeded", seeded))

		policy.ID = models.DispatchPolicyID
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&policy).Error; err != nil {
			return fmt.Errorf("seed dispatch policy: %w", err)
		}
		return nil
	})
}
