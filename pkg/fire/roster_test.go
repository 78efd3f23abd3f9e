package fire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
	_ "firewatch.xyz/alert-dispatch-service/pkg/testing"
)

func TestUpsertStation(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	station := seedStation(t, f, "Fire Station 9", 14.6, 120.98)
	require.NotZero(t, station.ID)

	station.Name = "Fire Station 9 (HQ)"
	station.PersonnelCount = 12
	require.NoError(t, f.Roster.UpsertStation(station))

	stations, err := f.Roster.ListStations()
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, "Fire Station 9 (HQ)", stations[0].Name)
	assert.Equal(t, 12, stations[0].PersonnelCount)

	err = f.Roster.UpsertStation(&models.Station{Name: ""})
	assert.True(t, errors.Is(err, ErrValidation))
	err = f.Roster.UpsertStation(&models.Station{Name: "Half", Latitude: ptr(1.0)})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestFirefighterCRUD(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	a := seedStation(t, f, "A", 0, 0)
	b := seedStation(t, f, "B", 1, 0)

	ff := seedFirefighter(t, f, "Ana", a.ID)
	assert.Equal(t, models.OnlineStatusOnline, ff.Status)

	err := f.Roster.CreateFirefighter(&models.Firefighter{Name: "Ghost", Phone: "1", StationID: 404})
	assert.True(t, errors.Is(err, ErrNotFound))
	err = f.Roster.CreateFirefighter(&models.Firefighter{Name: "", Phone: "1", StationID: a.ID})
	assert.True(t, errors.Is(err, ErrValidation))

	ff.StationID = b.ID
	ff.Status = models.OnlineStatusOffline
	require.NoError(t, f.Roster.UpdateFirefighter(ff))
	assert.Equal(t, b.ID, ff.StationID)

	crew, err := f.Dispatch.FirefightersFor([]uint{b.ID})
	require.NoError(t, err)
	require.Len(t, crew, 1)
	assert.Equal(t, models.OnlineStatusOffline, crew[0].Status)

	err = f.Roster.UpdateFirefighter(&models.Firefighter{ID: 999, Name: "X", Phone: "1", StationID: a.ID})
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, f.Roster.DeleteFirefighter(ff.ID))
	assert.True(t, errors.Is(f.Roster.DeleteFirefighter(ff.ID), ErrNotFound))

	all, err := f.Roster.ListFirefighters()
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestPersonnelCRUD(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	person := &models.Personnel{Name: "Admin Reyes", Role: "Dispatcher"}
	require.NoError(t, f.Roster.CreatePersonnel(person))
	assert.Equal(t, "admin", person.Type)
	assert.Equal(t, models.OnlineStatusOnline, person.Status)

	person.Status = models.OnlineStatusOffline
	person.Phone = ptr("+639001112222")
	require.NoError(t, f.Roster.UpdatePersonnel(person))

	listed, err := f.Roster.ListPersonnel()
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, models.OnlineStatusOffline, listed[0].Status)
	require.NotNil(t, listed[0].Phone)

	err = f.Roster.CreatePersonnel(&models.Personnel{Name: "No role"})
	assert.True(t, errors.Is(err, ErrValidation))
	err = f.Roster.CreatePersonnel(&models.Personnel{Name: "Far", Role: "Crew", StationID: ptr(uint(77))})
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, f.Roster.DeletePersonnel(person.ID))
	assert.True(t, errors.Is(f.Roster.DeletePersonnel(person.ID), ErrNotFound))
}

func TestSetCameraStatus(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	require.NoError(t, f.Db.SeedDefaults(models.DefaultDispatchPolicy()))

	require.NoError(t, f.Roster.SetCameraStatus(2, models.OnlineStatusOnline))
	var camera models.Camera
	require.NoError(t, f.Db.Conn.First(&camera, 2).Error)
	assert.Equal(t, models.OnlineStatusOnline, camera.Status)

	// a repeat heartbeat is not an error
	require.NoError(t, f.Roster.SetCameraStatus(2, models.OnlineStatusOnline))

	assert.True(t, errors.Is(f.Roster.SetCameraStatus(9, models.OnlineStatusOnline), ErrNotFound))
	assert.True(t, errors.Is(f.Roster.SetCameraStatus(1, "flaky"), ErrValidation))
}
