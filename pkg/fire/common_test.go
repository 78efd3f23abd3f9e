package fire

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"firewatch.xyz/alert-dispatch-service/pkg/db"
	"firewatch.xyz/alert-dispatch-service/pkg/fire/mocks"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
)

// testClock is a settable clock shared by a Fire under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now.UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now.UTC()
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testEpoch = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

// GetMockFireWithMemorySqliteDialector builds a Fire over a private in-memory
// database, optionally swapping the dispatcher or stats service for mocks.
func GetMockFireWithMemorySqliteDialector(t *testing.T, useMockIDispatcher, useMockIStats bool) (
	*gomock.Controller,
	*Fire,
	*mocks.MockIDispatcher,
	*mocks.MockIStats,
	*testClock,
) {
	ctrl := gomock.NewController(t)

	mockIDispatcher := mocks.NewMockIDispatcher(ctrl)
	mockIStats := mocks.NewMockIStats(ctrl)

	dbInstance, err := db.Open(db.UseNamedMemorySqliteDialector(uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := dbInstance.Conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	clock := newTestClock(testEpoch)
	fireInstance := &Fire{
		Db:      *dbInstance,
		Options: Options{Now: clock.Now, Location: time.UTC},
	}
	fireInstance.WithDefaultServices()

	if useMockIDispatcher {
		fireInstance.WithServices(ServiceOpts{Dispatch: mockIDispatcher})
	}
	if useMockIStats {
		fireInstance.WithServices(ServiceOpts{Stats: mockIStats})
	}

	return ctrl, fireInstance, mockIDispatcher, mockIStats, clock
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}

// findLog returns the first captured record whose msg equals msg.
func findLog(logs []any, msg string) map[string]any {
	for _, l := range logs {
		if m, ok := l.(map[string]any); ok && m["msg"] == msg {
			return m
		}
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}

func seedStation(t *testing.T, f *Fire, name string, lat, lon float64) *models.Station {
	station := &models.Station{Name: name, Latitude: ptr(lat), Longitude: ptr(lon)}
	require.NoError(t, f.Roster.UpsertStation(station))
	return station
}

func seedFirefighter(t *testing.T, f *Fire, name string, stationID uint) *models.Firefighter {
	ff := &models.Firefighter{Name: name, Phone: "+63900" + name, StationID: stationID}
	require.NoError(t, f.Roster.CreateFirefighter(ff))
	return ff
}

func seedDetection(t *testing.T, f *Fire, detectionType models.DetectionType, lat, lon *float64) *models.Detection {
	detection, _, err := f.Detection.RecordDetection(models.DetectionInput{
		CameraID:   1,
		CameraName: "Camera 1",
		Type:       detectionType,
		Confidence: 0.91,
		Location:   "Camera 1",
		Latitude:   lat,
		Longitude:  lon,
	})
	require.NoError(t, err)
	return detection
}

// seedAlert raises a pending alert for a detection at (lat, lon).
func seedAlert(t *testing.T, f *Fire, lat, lon float64) *models.Alert {
	detection := seedDetection(t, f, models.DetectionTypeFire, ptr(lat), ptr(lon))
	alert, err := f.Alert.Create(models.CreateAlertInput{DetectionID: &detection.ID})
	require.NoError(t, err)
	return alert
}

func countRows(t *testing.T, f *Fire, model any, query string, args ...any) int64 {
	var n int64
	q := f.Db.Conn.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
