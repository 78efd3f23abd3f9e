package fire

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zapcore"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
	_ "firewatch.xyz/alert-dispatch-service/pkg/testing"
)

func TestCreateAlertFromDetection(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	detection := seedDetection(t, f, models.DetectionTypeFire, ptr(14.6), ptr(120.98))

	alert, err := f.Alert.Create(models.CreateAlertInput{DetectionID: &detection.ID})
	require.NoError(t, err)

	assert.Equal(t, "🔥 Fire alert at Camera 1", alert.Message)
	assert.Equal(t, models.AlertLevelInfo, alert.Level)
	assert.Equal(t, models.AlertStatusActive, alert.Status)
	assert.Equal(t, models.AdminStatusPending, alert.AdminStatus)
	assert.Equal(t, models.FirefighterStatusPending, alert.FirefighterStatus)
	require.NotNil(t, alert.Type)
	assert.Equal(t, models.DetectionTypeFire, *alert.Type)
	require.NotNil(t, alert.Confidence)
	assert.InDelta(t, 0.91, *alert.Confidence, 1e-9)
	assert.True(t, testEpoch.Equal(alert.Timestamp))

	stored, err := f.Alert.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, alert.Message, stored.Message)
	assert.EqualValues(t, 1, countRows(t, f, &models.Activity{}, "message LIKE ?", "New alert:%"))
}

func TestCreateAlertMessages(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	smoke := models.DetectionTypeSmoke

	testCases := []struct {
		name     string
		input    models.CreateAlertInput
		expected string
	}{
		{"type only", models.CreateAlertInput{Type: &smoke}, "💨 Smoke alert at Unknown location"},
		{"type and location", models.CreateAlertInput{Type: &smoke, Location: "North Gate"}, "💨 Smoke alert at North Gate"},
		{"location only", models.CreateAlertInput{Location: "Warehouse"}, "⚠️ Alert at Warehouse"},
		{"explicit message", models.CreateAlertInput{Message: "Manual drill", Level: models.AlertLevelWarning}, "Manual drill"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			alert, err := f.Alert.Create(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, alert.Message)
		})
	}
}

func TestCreateAlertValidation(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	steam := models.DetectionType("steam")

	_, err := f.Alert.Create(models.CreateAlertInput{})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.Alert.Create(models.CreateAlertInput{Type: &steam})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.Alert.Create(models.CreateAlertInput{Location: "x", Level: "urgent"})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.Alert.Create(models.CreateAlertInput{Location: "x", AdminStatusHint: "maybe"})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.Alert.Create(models.CreateAlertInput{DetectionID: ptr(uint(404))})
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.EqualValues(t, 0, countRows(t, f, &models.Alert{}, ""))
}

func TestCreateAlertReturnsOpenAlertForDetection(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	detection := seedDetection(t, f, models.DetectionTypeSmoke, nil, nil)

	first, err := f.Alert.Create(models.CreateAlertInput{DetectionID: &detection.ID})
	require.NoError(t, err)
	second, err := f.Alert.Create(models.CreateAlertInput{DetectionID: &detection.ID})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.EqualValues(t, 1, countRows(t, f, &models.Alert{}, ""))
}

func TestCreateAlertWithAcceptedHintDispatches(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	seedStation(t, f, "Station A", 0, 0)
	detection := seedDetection(t, f, models.DetectionTypeFire, ptr(0.01), ptr(0.0))

	alert, err := f.Alert.Create(models.CreateAlertInput{
		DetectionID:     &detection.ID,
		AdminStatusHint: models.AdminStatusAccepted,
	})
	require.NoError(t, err)

	assert.Equal(t, models.AdminStatusAccepted, alert.AdminStatus)
	assert.EqualValues(t, 1, countRows(t, f, &models.Notification{}, "alert_id = ? AND decision = ?", alert.ID, models.AdminStatusAccepted))
}

func TestDecideAcceptIsIdempotent(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	seedStation(t, f, "Station A", 0, 0)
	seedStation(t, f, "Station B", 1, 0)
	seedStation(t, f, "Station C", 10, 0)
	alert := seedAlert(t, f, 0, 0)

	require.NoError(t, f.Alert.Decide(alert.ID, models.AdminStatusAccepted))
	require.NoError(t, f.Alert.Decide(alert.ID, models.AdminStatusAccepted))

	assert.EqualValues(t, 1, countRows(t, f, &models.Notification{}, "alert_id = ?", alert.ID))
	assert.EqualValues(t, 2, countRows(t, f, &models.DispatchTarget{}, ""))
	assert.EqualValues(t, 1, countRows(t, f, &models.Activity{}, "message = ?",
		fmt.Sprintf("[alert_accepted] Alert #%d accepted by admin", alert.ID)))

	stored, err := f.Alert.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AdminStatusAccepted, stored.AdminStatus)
	assert.Equal(t, models.AlertStatusActive, stored.Status)
}

func TestDecideNotifiesThroughDispatcherOnce(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, mockDispatcher, _, _ := GetMockFireWithMemorySqliteDialector(t, true, false)
	defer ctrl.Finish()

	alert := seedAlert(t, f, 14.6, 120.98)

	mockDispatcher.EXPECT().
		Notify(gomock.Any(), alert.ID, gomock.Any()).
		DoAndReturn(func(_ any, alertID uint, detection *models.Detection) (*models.Notification, error) {
			assert.True(t, detection.HasCoordinates())
			return &models.Notification{AlertID: alertID, Decision: models.AdminStatusAccepted}, nil
		}).
		Times(1)

	require.NoError(t, f.Alert.Decide(alert.ID, models.AdminStatusAccepted))
	require.NoError(t, f.Alert.Decide(alert.ID, models.AdminStatusAccepted))
}

func TestDecideRollsBackWhenDispatchFails(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, mockDispatcher, _, _ := GetMockFireWithMemorySqliteDialector(t, true, false)
	defer ctrl.Finish()

	alert := seedAlert(t, f, 14.6, 120.98)

	mockDispatcher.EXPECT().
		Notify(gomock.Any(), alert.ID, gomock.Any()).
		Return(nil, noStationsError())

	err := f.Alert.Decide(alert.ID, models.AdminStatusAccepted)
	assert.True(t, errors.Is(err, ErrNoStations))

	stored, err := f.Alert.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AdminStatusPending, stored.AdminStatus)
}

func TestDecideDeclineClosesAlert(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	alert := seedAlert(t, f, 14.6, 120.98)

	require.NoError(t, f.Alert.Decide(alert.ID, models.AdminStatusDeclined))
	require.NoError(t, f.Alert.Decide(alert.ID, models.AdminStatusDeclined))

	stored, err := f.Alert.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AdminStatusDeclined, stored.AdminStatus)
	assert.Equal(t, models.AlertStatusClosed, stored.Status)

	assert.EqualValues(t, 1, countRows(t, f, &models.Notification{}, "alert_id = ? AND decision = ?", alert.ID, models.AdminStatusDeclined))
	assert.EqualValues(t, 0, countRows(t, f, &models.DispatchTarget{}, ""))

	active, err := f.Alert.ListActive(0)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestDecideDeclinedCannotBeAccepted(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	seedStation(t, f, "Station A", 0, 0)
	alert := seedAlert(t, f, 0, 0)

	require.NoError(t, f.Alert.Decide(alert.ID, models.AdminStatusDeclined))
	err := f.Alert.Decide(alert.ID, models.AdminStatusAccepted)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.EqualValues(t, 0, countRows(t, f, &models.Notification{}, "decision = ?", models.AdminStatusAccepted))
}

func TestDecideAcceptedThenDeclined(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	seedStation(t, f, "Station A", 0, 0)
	alert := seedAlert(t, f, 0, 0)

	require.NoError(t, f.Alert.Decide(alert.ID, models.AdminStatusAccepted))
	require.NoError(t, f.Alert.Decide(alert.ID, models.AdminStatusDeclined))

	stored, err := f.Alert.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusClosed, stored.Status)

	visible, err := f.Alert.ListFirefighterVisible()
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestDecideMissingCoordinatesLeavesAlertPending(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	seedStation(t, f, "Station A", 0, 0)
	detection := seedDetection(t, f, models.DetectionTypeFire, nil, nil)
	alert, err := f.Alert.Create(models.CreateAlertInput{DetectionID: &detection.ID})
	require.NoError(t, err)

	err = f.Alert.Decide(alert.ID, models.AdminStatusAccepted)
	assert.True(t, errors.Is(err, ErrMissingCoordinates))

	stored, err := f.Alert.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AdminStatusPending, stored.AdminStatus)
	assert.EqualValues(t, 0, countRows(t, f, &models.Notification{}, ""))

	// a manual alert has no detection to dispatch from either
	manual, err := f.Alert.Create(models.CreateAlertInput{Location: "Warehouse"})
	require.NoError(t, err)
	err = f.Alert.Decide(manual.ID, models.AdminStatusAccepted)
	assert.True(t, errors.Is(err, ErrMissingCoordinates))
}

func TestDecideNoStations(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	alert := seedAlert(t, f, 0, 0)

	err := f.Alert.Decide(alert.ID, models.AdminStatusAccepted)
	assert.True(t, errors.Is(err, ErrNoStations))
}

func TestDecideErrors(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	err := f.Alert.Decide(999, models.AdminStatusAccepted)
	assert.True(t, errors.Is(err, ErrNotFound))

	alert := seedAlert(t, f, 0, 0)
	err = f.Alert.Decide(alert.ID, models.AdminStatusPending)
	assert.True(t, errors.Is(err, ErrValidation))
	err = f.Alert.Decide(alert.ID, "approve")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestDecideConcurrentAcceptNotifiesOnce(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	seedStation(t, f, "Station A", 0, 0)
	seedStation(t, f, "Station B", 1, 0)
	alert := seedAlert(t, f, 0, 0)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.Alert.Decide(alert.ID, models.AdminStatusAccepted)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, countRows(t, f, &models.Notification{}, "alert_id = ?", alert.ID))
	assert.EqualValues(t, 2, countRows(t, f, &models.DispatchTarget{}, ""))
	assert.EqualValues(t, 1, countRows(t, f, &models.Activity{}, "message = ?",
		fmt.Sprintf("[alert_accepted] Alert #%d accepted by admin", alert.ID)))
}

func TestDecideLogsDecision(t *testing.T) {
	var buf bytes.Buffer
	common.SetTestCaptureLogger(&buf, zapcore.InfoLevel)
	defer common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	alert := seedAlert(t, f, 0, 0)
	require.NoError(t, f.Alert.Decide(alert.ID, models.AdminStatusDeclined))

	record := findLog(ParseLogs(&buf), "Admin decision applied")
	require.NotNil(t, record)
	assert.Equal(t, common.LoggerCategoryFireAlert, record["category"])
	assert.Equal(t, "declined", record["decision"])
}

func TestFirefighterStatusTransitions(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, clock := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	seedStation(t, f, "Station A", 0, 0)
	alert := seedAlert(t, f, 0, 0)
	require.NoError(t, f.Alert.Decide(alert.ID, models.AdminStatusAccepted))

	clock.Advance(5 * time.Minute)
	result, err := f.Alert.UpdateFirefighterStatus(alert.ID, models.FirefighterStatusResponding)
	require.NoError(t, err)
	assert.Equal(t, models.TransitionResult{RespondedJustSet: true}, result)

	clock.Advance(time.Minute)
	result, err = f.Alert.UpdateFirefighterStatus(alert.ID, models.FirefighterStatusResponding)
	require.NoError(t, err)
	assert.False(t, result.Any())

	result, err = f.Alert.UpdateFirefighterStatus(alert.ID, models.FirefighterStatusAcknowledged)
	require.NoError(t, err)
	assert.Equal(t, models.TransitionResult{AckJustSet: true}, result)

	// repeating responding after acknowledged is a harmless retry
	result, err = f.Alert.UpdateFirefighterStatus(alert.ID, models.FirefighterStatusResponding)
	require.NoError(t, err)
	assert.False(t, result.Any())
	_, err = f.Alert.UpdateFirefighterStatus(alert.ID, models.FirefighterStatusPending)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	_, err = f.Alert.UpdateFirefighterStatus(alert.ID, "dispatched")
	assert.True(t, errors.Is(err, ErrValidation))
	_, err = f.Alert.UpdateFirefighterStatus(404, models.FirefighterStatusResponding)
	assert.True(t, errors.Is(err, ErrNotFound))

	stored, err := f.Alert.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FirefighterStatusAcknowledged, stored.FirefighterStatus)
	require.NotNil(t, stored.RespondedAt)
	require.NotNil(t, stored.AcknowledgedAt)
	assert.True(t, testEpoch.Add(5*time.Minute).Equal(*stored.RespondedAt))
	assert.True(t, testEpoch.Add(6*time.Minute).Equal(*stored.AcknowledgedAt))
}

func TestFirefighterRespondingAfterDirectAcknowledge(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	seedStation(t, f, "Station A", 0, 0)
	alert := seedAlert(t, f, 0, 0)
	require.NoError(t, f.Alert.Decide(alert.ID, models.AdminStatusAccepted))

	result, err := f.Alert.UpdateFirefighterStatus(alert.ID, models.FirefighterStatusAcknowledged)
	require.NoError(t, err)
	assert.Equal(t, models.TransitionResult{AckJustSet: true}, result)

	result, err = f.Alert.UpdateFirefighterStatus(alert.ID, models.FirefighterStatusAcknowledged)
	require.NoError(t, err)
	assert.False(t, result.Any())

	// responded_at was never stamped, so this is a real regression
	_, err = f.Alert.UpdateFirefighterStatus(alert.ID, models.FirefighterStatusResponding)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	stored, err := f.Alert.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FirefighterStatusAcknowledged, stored.FirefighterStatus)
	assert.Nil(t, stored.RespondedAt)
}

func TestFirefighterStatusOnClosedAlert(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	alert := seedAlert(t, f, 0, 0)
	require.NoError(t, f.Alert.Decide(alert.ID, models.AdminStatusDeclined))

	_, err := f.Alert.UpdateFirefighterStatus(alert.ID, models.FirefighterStatusResponding)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestFirefighterStatusReportsToStats(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, mockStats, _ := GetMockFireWithMemorySqliteDialector(t, false, true)
	defer ctrl.Finish()

	mockStats.EXPECT().RecordDetection(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	alert := seedAlert(t, f, 0, 0)

	mockStats.EXPECT().
		OnFirefighterTransition(gomock.Any(), testEpoch, models.FirefighterStatusResponding, alert.ID, models.TransitionResult{RespondedJustSet: true}).
		Return(nil).
		Times(1)

	_, err := f.Alert.UpdateFirefighterStatus(alert.ID, models.FirefighterStatusResponding)
	require.NoError(t, err)
	// the repeat stamps nothing, so stats are not called again
	_, err = f.Alert.UpdateFirefighterStatus(alert.ID, models.FirefighterStatusResponding)
	require.NoError(t, err)
}

func TestFirefighterStatusConcurrentRespondingCountsOnce(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	seedStation(t, f, "Station A", 0, 0)
	alert := seedAlert(t, f, 0, 0)
	require.NoError(t, f.Alert.Decide(alert.ID, models.AdminStatusAccepted))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstSet int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.Alert.UpdateFirefighterStatus(alert.ID, models.FirefighterStatusResponding)
			assert.NoError(t, err)
			if result.RespondedJustSet {
				mu.Lock()
				firstSet++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, firstSet)

	stat, err := f.Stats.DailyStats(testEpoch)
	require.NoError(t, err)
	assert.Equal(t, 1, stat.RespondedCount)
}

func TestListFirefighterVisible(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, clock := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	seedStation(t, f, "Station A", 0, 0)
	pending := seedAlert(t, f, 0, 0)
	clock.Advance(time.Minute)
	accepted := seedAlert(t, f, 0, 0)
	require.NoError(t, f.Alert.Decide(accepted.ID, models.AdminStatusAccepted))

	visible, err := f.Alert.ListFirefighterVisible()
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, accepted.ID, visible[0].ID)

	active, err := f.Alert.ListActive(0)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, accepted.ID, active[0].ID, "newest first")
	assert.Equal(t, pending.ID, active[1].ID)

	limited, err := f.Alert.ListActive(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
