package db

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
	_ "firewatch.xyz/alert-dispatch-service/pkg/testing"
)

func tableExists(db *gorm.DB, tableName string) bool {
	var count int64
	err := db.Raw(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, tableName,
	).Scan(&count).Error
	return err == nil && count > 0
}

func indexExists(db *gorm.DB, indexName string) bool {
	var count int64
	err := db.Raw(
		`SELECT count(*) FROM sqlite_master WHERE type='index' AND name=?`, indexName,
	).Scan(&count).Error
	return err == nil && count > 0
}

func openTestDB(t *testing.T) *DB {
	instance, err := Open(UseNamedMemorySqliteDialector(uuid.NewString()))
	require.NoError(t, err)
	return instance
}

func TestWithMemorySqlite(t *testing.T) {
	common.SetTestLoggerNop()

	instance := GetInstance(UseMemorySqliteDialector())
	require.NotNil(t, instance)

	var tables = []string{
		"cameras", "stations", "firefighters", "personnel", "detections", "alerts",
		"notifications", "dispatch_targets", "activity", "firefighter_stats",
		"detection_history", "dispatch_policies",
	}
	for _, table := range tables {
		if !tableExists(instance.Conn, table) {
			t.Errorf("Expected table %q to exist after migration", table)
		}
	}

	assert.True(t, indexExists(instance.Conn, "idx_notifications_alert_decision"))
	assert.True(t, indexExists(instance.Conn, "idx_alerts_open_detection"))
}

func TestSingletonConcurrency(t *testing.T) {
	common.SetTestLoggerNop()

	const goroutineCount = 20

	var wg sync.WaitGroup
	instances := make(chan *DB, goroutineCount)

	for range goroutineCount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			instances <- GetInstance(UseMemorySqliteDialector())
		}()
	}

	wg.Wait()
	close(instances)

	var first *DB
	for inst := range instances {
		if first == nil {
			first = inst
			continue
		}
		if inst != first {
			t.Error("Expected all instances to be the same (singleton), but found different ones")
		}
	}
}

func TestNamedMemoryDatabasesAreIsolated(t *testing.T) {
	common.SetTestLoggerNop()

	a := openTestDB(t)
	b := openTestDB(t)

	require.NoError(t, a.Conn.Create(&models.Activity{Message: "only in a"}).Error)

	var count int64
	require.NoError(t, b.Conn.Model(&models.Activity{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestNotificationUniquePerDecision(t *testing.T) {
	common.SetTestLoggerNop()

	instance := openTestDB(t)

	alert := models.Alert{Message: "test", Level: models.AlertLevelInfo}
	require.NoError(t, instance.Conn.Create(&alert).Error)

	first := models.Notification{AlertID: alert.ID, Decision: models.AdminStatusAccepted}
	require.NoError(t, instance.Conn.Create(&first).Error)

	dup := models.Notification{AlertID: alert.ID, Decision: models.AdminStatusAccepted}
	assert.Error(t, instance.Conn.Create(&dup).Error)

	other := models.Notification{AlertID: alert.ID, Decision: models.AdminStatusDeclined}
	assert.NoError(t, instance.Conn.Create(&other).Error)
}

func TestSeedDefaultsIsRepeatable(t *testing.T) {
	common.SetTestLoggerNop()

	instance := openTestDB(t)
	policy := models.DefaultDispatchPolicy()
	policy.StationCount = 3

	require.NoError(t, instance.SeedDefaults(policy))
	require.NoError(t, instance.SeedDefaults(models.DefaultDispatchPolicy()))

	var stations []models.Station
	require.NoError(t, instance.Conn.Order("id").Find(&stations).Error)
	require.Len(t, stations, 2)
	assert.Equal(t, "Fire Station 1", stations[0].Name)
	assert.True(t, stations[1].HasCoordinates())

	var cameras, personnel int64
	require.NoError(t, instance.Conn.Model(&models.Camera{}).Count(&cameras).Error)
	require.NoError(t, instance.Conn.Model(&models.Personnel{}).Count(&personnel).Error)
	assert.Equal(t, int64(2), cameras)
	assert.Equal(t, int64(2), personnel)

	var saved models.DispatchPolicy
	require.NoError(t, instance.Conn.First(&saved, models.DispatchPolicyID).Error)
	assert.Equal(t, 3, saved.StationCount, "an existing policy row is not overwritten by seeding")
}

func TestWithEnvPath(t *testing.T) {
	common.SetTestLoggerNop()

	if os.Getenv(common.EnvKeyRunIntegrationTests) != "true" {
		t.Skip("Skipping integration test: RUN_INTEGRATION_TESTS environment variable not set")
	}

	testPath := filepath.Join(t.TempDir(), "test.db")
	t.Setenv(common.EnvKeyFireDbPath, testPath)

	instance, err := Open(UseSqliteDialector())
	require.NoError(t, err)
	require.NotNil(t, instance.Conn)

	if _, err := os.Stat(testPath); os.IsNotExist(err) {
		t.Errorf("Expected database file to be created at %s", testPath)
	}
}
