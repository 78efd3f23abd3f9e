package fire

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
	_ "firewatch.xyz/alert-dispatch-service/pkg/testing"
)

func TestSnapshotEmptyDatabase(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	state, err := f.Dashboard.Snapshot()
	require.NoError(t, err)

	body, err := json.Marshal(state)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	for _, key := range []string{"cameras", "detections", "alerts", "activity", "firefighters", "personnel", "stations"} {
		assert.Equal(t, []any{}, decoded[key], key)
	}
	assert.Len(t, state.DetectionHistory, 48)
	assert.Equal(t, "2026-03-04", state.Stats.Date)
	assert.Zero(t, state.Stats.DetectionsToday)
	assert.True(t, testEpoch.Equal(state.LastUpdate))
}

func TestSnapshotCountsToday(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, clock := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	require.NoError(t, f.Db.SeedDefaults(models.DefaultDispatchPolicy()))
	require.NoError(t, f.Roster.SetCameraStatus(1, models.OnlineStatusOnline))

	record := func(detectionType models.DetectionType, at time.Time) {
		_, _, err := f.Detection.RecordDetection(models.DetectionInput{
			CameraID:   1,
			CameraName: "Camera 1 - Visual ML",
			Type:       detectionType,
			Confidence: 0.7,
			Timestamp:  at,
		})
		require.NoError(t, err)
	}
	record(models.DetectionTypeFire, testEpoch.Add(-2*time.Hour))
	record(models.DetectionTypeFire, testEpoch.Add(-time.Hour))
	record(models.DetectionTypeSmoke, testEpoch)
	// yesterday
	record(models.DetectionTypeSmoke, testEpoch.Add(-24*time.Hour))

	alert, err := f.Alert.Create(models.CreateAlertInput{Location: "Warehouse"})
	require.NoError(t, err)
	clock.Advance(4 * time.Minute)
	_, err = f.Alert.UpdateFirefighterStatus(alert.ID, models.FirefighterStatusResponding)
	require.NoError(t, err)

	state, err := f.Dashboard.Snapshot()
	require.NoError(t, err)

	assert.EqualValues(t, 3, state.Stats.DetectionsToday)
	assert.EqualValues(t, 2, state.Stats.FireToday)
	assert.EqualValues(t, 1, state.Stats.SmokeToday)
	assert.EqualValues(t, 1, state.Stats.ActiveCameras)
	assert.EqualValues(t, 2, state.Stats.PersonnelOnline)
	assert.Equal(t, 1, state.Stats.RespondedCount)

	assert.Len(t, state.Cameras, 2)
	assert.Len(t, state.Stations, 2)
	assert.Len(t, state.Detections, 4)
	require.Len(t, state.Alerts, 1)
	assert.Equal(t, alert.ID, state.Alerts[0].ID)
	assert.NotEmpty(t, state.Activity)
}

func TestSnapshotUsesStatsService(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, mockStats, _ := GetMockFireWithMemorySqliteDialector(t, false, true)
	defer ctrl.Finish()

	mockStats.EXPECT().DailyStats(gomock.Any()).Return(&models.FirefighterAlertStat{
		Date:              "2026-03-04",
		RespondedCount:    4,
		AcknowledgedCount: 3,
		AvgResponseTime:   7.5,
	}, nil)
	mockStats.EXPECT().DetectionHistogram(testEpoch, 24, 30).Return([]models.HistogramBucket{}, nil)

	state, err := f.Dashboard.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 4, state.Stats.RespondedCount)
	assert.Equal(t, 3, state.Stats.AcknowledgedCount)
	assert.InDelta(t, 7.5, state.Stats.AvgResponseTime, 1e-9)
	assert.NotNil(t, state.DetectionHistory)
}
