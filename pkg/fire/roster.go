package fire

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/geo"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
)

func validateStation(station *models.Station) error {
	station.Name = strings.TrimSpace(station.Name)
	if station.Name == "" {
		return validationError("station name is required")
	}
	if (station.Latitude == nil) != (station.Longitude == nil) {
		return validationError("latitude and longitude must be given together")
	}
	if station.HasCoordinates() && !(geo.Point{Lat: *station.Latitude, Lon: *station.Longitude}).Valid() {
		return validationError("invalid coordinates (%f, %f)", *station.Latitude, *station.Longitude)
	}
	if station.PersonnelCount < 0 {
		return validationError("personnel_count must not be negative")
	}
	return nil
}

// upsertStation inserts a station, or replaces it when the id is taken.
func (f *Fire) upsertStation(station *models.Station) error {
	logger := common.GetCoreLogger(common.LoggerCategoryFireRoster)

	if err := validateStation(station); err != nil {
		return err
	}
	err := f.Db.Conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Omit("Firefighters").Create(station).Error
	if err != nil {
		return storageError("upsert station", err)
	}
	logger.Info("Upserted station", zap.Reflect("station", station))
	return nil
}

func (f *Fire) listStations() ([]models.Station, error) {
	var stations []models.Station
	if err := f.Db.Conn.Order("id").Find(&stations).Error; err != nil {
		return nil, storageError("list stations", err)
	}
	return emptyIfNil(stations), nil
}

func (f *Fire) stationExists(stationID uint) error {
	var n int64
	if err := f.Db.Conn.Model(&models.Station{}).Where("id = ?", stationID).Count(&n).Error; err != nil {
		return storageError("load station", err)
	}
	if n == 0 {
		return notFoundError("station", stationID)
	}
	return nil
}

func validateFirefighter(ff *models.Firefighter) error {
	ff.Name = strings.TrimSpace(ff.Name)
	ff.Phone = strings.TrimSpace(ff.Phone)
	if ff.Name == "" || ff.Phone == "" {
		return validationError("firefighter name and phone are required")
	}
	if ff.StationID == 0 {
		return validationError("firefighter station is required")
	}
	if ff.Status == "" {
		ff.Status = models.OnlineStatusOnline
	}
	if !ff.Status.Valid() {
		return validationError("unknown status %q", ff.Status)
	}
	return nil
}

func (f *Fire) createFirefighter(ff *models.Firefighter) error {
	if err := validateFirefighter(ff); err != nil {
		return err
	}
	if err := f.stationExists(ff.StationID); err != nil {
		return err
	}
	ff.ID = 0
	if err := f.Db.Conn.Create(ff).Error; err != nil {
		return storageError("insert firefighter", err)
	}
	common.GetCoreLogger(common.LoggerCategoryFireRoster).Info("Firefighter added",
		zap.Uint("firefighter_id", ff.ID),
		zap.Uint("station_id", ff.StationID),
	)
	return nil
}

func (f *Fire) updateFirefighter(ff *models.Firefighter) error {
	if err := validateFirefighter(ff); err != nil {
		return err
	}
	if err := f.stationExists(ff.StationID); err != nil {
		return err
	}
	res := f.Db.Conn.Model(&models.Firefighter{}).Where("id = ?", ff.ID).Updates(map[string]any{
		"name":    ff.Name,
		"phone":   ff.Phone,
		"station": ff.StationID,
		"status":  ff.Status,
	})
	if res.Error != nil {
		return storageError("update firefighter", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundError("firefighter", ff.ID)
	}
	return storageError("load firefighter", f.Db.Conn.First(ff, ff.ID).Error)
}

func deleteByID[T any](conn *gorm.DB, entity string, id uint) error {
	var row T
	res := conn.Delete(&row, id)
	if res.Error != nil {
		return storageError(fmt.Sprintf("delete %s", entity), res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundError(entity, id)
	}
	common.GetCoreLogger(common.LoggerCategoryFireRoster).Info("Deleted "+entity, zap.Uint("id", id))
	return nil
}

func (f *Fire) listFirefighters() ([]models.Firefighter, error) {
	var firefighters []models.Firefighter
	if err := f.Db.Conn.Order("station, name, id").Find(&firefighters).Error; err != nil {
		return nil, storageError("list firefighters", err)
	}
	return emptyIfNil(firefighters), nil
}

func validatePersonnel(p *models.Personnel) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Role = strings.TrimSpace(p.Role)
	if p.Name == "" || p.Role == "" {
		return validationError("personnel name and role are required")
	}
	if p.Type == "" {
		p.Type = "admin"
	}
	if p.Status == "" {
		p.Status = models.OnlineStatusOnline
	}
	if !p.Status.Valid() {
		return validationError("unknown status %q", p.Status)
	}
	return nil
}

func (f *Fire) createPersonnel(p *models.Personnel) error {
	if err := validatePersonnel(p); err != nil {
		return err
	}
	if p.StationID != nil {
		if err := f.stationExists(*p.StationID); err != nil {
			return err
		}
	}
	p.ID = 0
	if err := f.Db.Conn.Create(p).Error; err != nil {
		return storageError("insert personnel", err)
	}
	common.GetCoreLogger(common.LoggerCategoryFireRoster).Info("Personnel added", zap.Uint("personnel_id", p.ID))
	return nil
}

func (f *Fire) updatePersonnel(p *models.Personnel) error {
	if err := validatePersonnel(p); err != nil {
		return err
	}
	if p.StationID != nil {
		if err := f.stationExists(*p.StationID); err != nil {
			return err
		}
	}
	res := f.Db.Conn.Model(&models.Personnel{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":    p.Name,
		"role":    p.Role,
		"type":    p.Type,
		"phone":   p.Phone,
		"station": p.StationID,
		"status":  p.Status,
	})
	if res.Error != nil {
		return storageError("update personnel", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundError("personnel", p.ID)
	}
	return storageError("load personnel", f.Db.Conn.First(p, p.ID).Error)
}

func (f *Fire) listPersonnel() ([]models.Personnel, error) {
	var personnel []models.Personnel
	if err := f.Db.Conn.Order("type, name, id").Find(&personnel).Error; err != nil {
		return nil, storageError("list personnel", err)
	}
	return emptyIfNil(personnel), nil
}

// setCameraStatus records a heartbeat from the detection pipeline.
func (f *Fire) setCameraStatus(cameraID uint, status models.OnlineStatus) error {
	if !status.Valid() {
		return validationError("unknown camera status %q", status)
	}
	res := f.Db.Conn.Model(&models.Camera{}).Where("id = ?", cameraID).Updates(map[string]any{
		"status":     status,
		"updated_at": f.now(),
	})
	if res.Error != nil {
		return storageError("update camera", res.Error)
	}
	if res.RowsAffected == 0 {
		var camera models.Camera
		err := f.Db.Conn.First(&camera, cameraID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("camera", cameraID)
		}
		return storageError("load camera", err)
	}
	common.GetCoreLogger(common.LoggerCategoryFireRoster).Debug("Camera status updated",
		zap.Uint("camera_id", cameraID),
		zap.String("status", string(status)),
	)
	return nil
}

type IRosterImpl struct {
	fire *Fire
}

func (ir *IRosterImpl) UpsertStation(station *models.Station) error {
	return ir.fire.upsertStation(station)
}

func (ir *IRosterImpl) ListStations() ([]models.Station, error) {
	return ir.fire.listStations()
}

func (ir *IRosterImpl) CreateFirefighter(ff *models.Firefighter) error {
	return ir.fire.createFirefighter(ff)
}

func (ir *IRosterImpl) UpdateFirefighter(ff *models.Firefighter) error {
	return ir.fire.updateFirefighter(ff)
}

func (ir *IRosterImpl) DeleteFirefighter(id uint) error {
	return deleteByID[models.Firefighter](ir.fire.Db.Conn, "firefighter", id)
}

func (ir *IRosterImpl) ListFirefighters() ([]models.Firefighter, error) {
	return ir.fire.listFirefighters()
}

func (ir *IRosterImpl) CreatePersonnel(p *models.Personnel) error {
	return ir.fire.createPersonnel(p)
}

func (ir *IRosterImpl) UpdatePersonnel(p *models.Personnel) error {
	return ir.fire.updatePersonnel(p)
}

func (ir *IRosterImpl) DeletePersonnel(id uint) error {
	return deleteByID[models.Personnel](ir.fire.Db.Conn, "personnel", id)
}

func (ir *IRosterImpl) ListPersonnel() ([]models.Personnel, error) {
	return ir.fire.listPersonnel()
}

func (ir *IRosterImpl) SetCameraStatus(cameraID uint, status models.OnlineStatus) error {
	return ir.fire.setCameraStatus(cameraID, status)
}

func (f *Fire) GetIRoster() IRoster {
	return &IRosterImpl{fire: f}
}
