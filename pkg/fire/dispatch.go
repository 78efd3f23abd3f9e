package fire

import (
	"errors"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/geo"
	"firewatch.xyz/alert-dispatch-service/pkg/metrics"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
)

// nearestStations ranks every station with coordinates by great-circle distance
// from (lat, lon), ties broken by station id, and keeps the first k.
func nearestStations(conn *gorm.DB, lat, lon float64, k int) ([]models.StationDistance, error) {
	if k <= 0 {
		return nil, validationError("station count must be positive, got %d", k)
	}
	if !(geo.Point{Lat: lat, Lon: lon}).Valid() {
		return nil, validationError("invalid coordinates (%f, %f)", lat, lon)
	}

	var stations []models.Station
	err := conn.
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Order("id").
		Find(&stations).Error
	if err != nil {
		return nil, storageError("list stations", err)
	}
	if len(stations) == 0 {
		return nil, noStationsError()
	}

	ranked := common.Mapper(stations, func(s models.Station) models.StationDistance {
		return models.StationDistance{
			Station:    s,
			DistanceKm: geo.HaversineKm(lat, lon, *s.Latitude, *s.Longitude),
		}
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].Station.ID < ranked[j].Station.ID
	})

	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked, nil
}

func firefightersFor(conn *gorm.DB, stationIDs []uint) ([]models.Firefighter, error) {
	if len(stationIDs) == 0 {
		return []models.Firefighter{}, nil
	}
	var firefighters []models.Firefighter
	err := conn.
		Where("station IN ?", stationIDs).
		Order("station, name, id").
		Find(&firefighters).Error
	if err != nil {
		return nil, storageError("list firefighters", err)
	}
	return emptyIfNil(firefighters), nil
}

func findNotification(conn *gorm.DB, alertID uint, decision models.AdminStatus) (*models.Notification, error) {
	var notification models.Notification
	err := conn.
		Preload("Targets", func(db *gorm.DB) *gorm.DB { return db.Order("rank") }).
		Where("alert_id = ? AND decision = ?", alertID, decision).
		First(&notification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("load notification", err)
	}
	return &notification, nil
}

// insertNotification writes the (alert, decision) row unless one exists and
// returns the row on record either way.
func (f *Fire) insertNotification(tx *gorm.DB, alertID uint, decision models.AdminStatus) (*models.Notification, bool, error) {
	now := f.now()
	notification := models.Notification{
		AlertID:  alertID,
		Type:     models.NotificationTypeFirefighter,
		Status:   models.DeliveryStatusSent,
		Decision: decision,
		SentAt:   &now,
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "alert_id"}, {Name: "decision"}},
		DoNothing: true,
	}).Create(&notification)
	if res.Error != nil {
		return nil, false, storageError("insert notification", res.Error)
	}
	if res.RowsAffected == 0 {
		existing, err := findNotification(tx, alertID, decision)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, storageError("insert notification", gorm.ErrRecordNotFound)
		}
		return existing, false, nil
	}
	return &notification, true, nil
}

// notify fans an accepted alert out to the nearest stations. A second call
// returns the notification already on record and sends nothing.
func (f *Fire) notify(tx *gorm.DB, alertID uint, detection *models.Detection) (*models.Notification, error) {
	logger := common.GetCoreLogger(common.LoggerCategoryFireDispatch)

	existing, err := findNotification(tx, alertID, models.AdminStatusAccepted)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Debug("Alert already notified", zap.Uint("alert_id", alertID), zap.Uint("notification_id", existing.ID))
		return existing, nil
	}

	if !detection.HasCoordinates() {
		logger.Warn("Cannot dispatch alert without coordinates", zap.Uint("alert_id", alertID))
		return nil, missingCoordinatesError(alertID)
	}

	policy, err := getPolicy(tx)
	if err != nil {
		return nil, err
	}
	ranked, err := nearestStations(tx, *detection.Latitude, *detection.Longitude, policy.StationCount)
	if err != nil {
		return nil, err
	}
	stationIDs := common.Mapper(ranked, func(r models.StationDistance) uint { return r.Station.ID })
	firefighters, err := firefightersFor(tx, stationIDs)
	if err != nil {
		return nil, err
	}

	notification, inserted, err := f.insertNotification(tx, alertID, models.AdminStatusAccepted)
	if err != nil || !inserted {
		return notification, err
	}

	perStation := common.Reducer(firefighters, func(acc map[uint]int, ff models.Firefighter) map[uint]int {
		acc[ff.StationID]++
		return acc
	}, map[uint]int{})

	targets := make([]models.DispatchTarget, 0, len(ranked))
	for i, r := range ranked {
		targets = append(targets, models.DispatchTarget{
			NotificationID:   notification.ID,
			StationID:        r.Station.ID,
			Rank:             i + 1,
			DistanceKm:       r.DistanceKm,
			FirefighterCount: perStation[r.Station.ID],
		})
		if perStation[r.Station.ID] == 0 {
			logger.Warn("Station has no firefighters on roster",
				zap.Uint("alert_id", alertID),
				zap.Uint("station_id", r.Station.ID),
			)
		}
	}
	if err := tx.Create(&targets).Error; err != nil {
		return nil, storageError("insert dispatch targets", err)
	}
	notification.Targets = targets

	distances := common.Mapper(ranked, func(r models.StationDistance) float64 { return r.DistanceKm })
	metrics.RecordDispatch(distances)

	logger.Info("Alert dispatched",
		zap.Uint("alert_id", alertID),
		zap.Uint("notification_id", notification.ID),
		zap.Uints("stations", stationIDs),
		zap.Int("recipients", len(firefighters)),
		zap.Float64s("distances_km", distances),
	)
	return notification, nil
}

// recordDecision stores a non-dispatching decision, e.g. a decline.
func (f *Fire) recordDecision(tx *gorm.DB, alertID uint, decision models.AdminStatus) (*models.Notification, error) {
	if !decision.Terminal() {
		return nil, validationError("decision must be accepted or declined, got %q", decision)
	}
	notification, inserted, err := f.insertNotification(tx, alertID, decision)
	if err != nil {
		return nil, err
	}
	if inserted {
		common.GetCoreLogger(common.LoggerCategoryFireDispatch).Info("Decision recorded",
			zap.Uint("alert_id", alertID),
			zap.String("decision", string(decision)),
		)
	}
	return notification, nil
}

func buildDispatchStations(ranked []models.StationDistance, firefighters []models.Firefighter) []models.DispatchStation {
	stations := make([]models.DispatchStation, 0, len(ranked))
	for _, r := range ranked {
		crew := common.Filter(firefighters, func(ff models.Firefighter) bool { return ff.StationID == r.Station.ID })
		stations = append(stations, models.DispatchStation{
			Station:      r.Station,
			DistanceKm:   r.DistanceKm,
			Firefighters: crew,
			UnderStaffed: len(crew) == 0,
		})
	}
	return stations
}

// dispatchPlan describes who an alert reaches: the recorded targets once the
// alert was notified, otherwise a preview computed from the current roster.
func (f *Fire) dispatchPlan(alertID uint) (*models.DispatchPlan, error) {
	conn := f.Db.Conn

	alert, err := findAlert(conn, alertID)
	if err != nil {
		return nil, err
	}
	notification, err := findNotification(conn, alertID, models.AdminStatusAccepted)
	if err != nil {
		return nil, err
	}

	var ranked []models.StationDistance
	if notification != nil {
		ids := common.Mapper(notification.Targets, func(t models.DispatchTarget) uint { return t.StationID })
		var stations []models.Station
		if len(ids) > 0 {
			if err := conn.Where("id IN ?", ids).Find(&stations).Error; err != nil {
				return nil, storageError("list stations", err)
			}
		}
		byID := common.Reducer(stations, func(acc map[uint]models.Station, s models.Station) map[uint]models.Station {
			acc[s.ID] = s
			return acc
		}, map[uint]models.Station{})
		for _, t := range notification.Targets {
			station, ok := byID[t.StationID]
			if !ok {
				station = models.Station{ID: t.StationID}
			}
			ranked = append(ranked, models.StationDistance{Station: station, DistanceKm: t.DistanceKm})
		}
	} else {
		detection, err := alertDetection(conn, alert)
		if err != nil {
			return nil, err
		}
		if !detection.HasCoordinates() {
			return nil, missingCoordinatesError(alertID)
		}
		policy, err := getPolicy(conn)
		if err != nil {
			return nil, err
		}
		if ranked, err = nearestStations(conn, *detection.Latitude, *detection.Longitude, policy.StationCount); err != nil {
			return nil, err
		}
	}

	stationIDs := common.Mapper(ranked, func(r models.StationDistance) uint { return r.Station.ID })
	firefighters, err := firefightersFor(conn, stationIDs)
	if err != nil {
		return nil, err
	}

	return &models.DispatchPlan{
		AlertID:      alertID,
		Notification: notification,
		Stations:     buildDispatchStations(ranked, firefighters),
		Recipients:   firefighters,
	}, nil
}

type IDispatcherImpl struct {
	fire *Fire
}

func (id *IDispatcherImpl) Notify(tx *gorm.DB, alertID uint, detection *models.Detection) (*models.Notification, error) {
	return id.fire.notify(tx, alertID, detection)
}

func (id *IDispatcherImpl) RecordDecision(tx *gorm.DB, alertID uint, decision models.AdminStatus) (*models.Notification, error) {
	return id.fire.recordDecision(tx, alertID, decision)
}

func (id *IDispatcherImpl) NearestStations(lat, lon float64, k int) ([]models.StationDistance, error) {
	return nearestStations(id.fire.Db.Conn, lat, lon, k)
}

func (id *IDispatcherImpl) FirefightersFor(stationIDs []uint) ([]models.Firefighter, error) {
	return firefightersFor(id.fire.Db.Conn, stationIDs)
}

func (id *IDispatcherImpl) DispatchPlan(alertID uint) (*models.DispatchPlan, error) {
	return id.fire.dispatchPlan(alertID)
}

func (f *Fire) GetIDispatcher() IDispatcher {
	return &IDispatcherImpl{fire: f}
}
