package db

import (
	"fmt"
	"log"
	"os"
	"sync"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
)

type DB struct {
	Conn *gorm.DB
}

var (
	instance *DB
	once     sync.Once
)

// GetInstance opens, migrates and caches the process-wide database.
func GetInstance(dialector gorm.Dialector) *DB {
	once.Do(func() {
		var err error
		if instance, err = Open(dialector); err != nil {
			log.Fatal("Failed to open database: ", err)
		}
	})
	return instance
}

// Open connects with dialector and migrates the schema. Each call returns an
// independent handle, which is what tests use to get an isolated database.
func Open(dialector gorm.Dialector) (*DB, error) {
	logger := common.GetLoggerWith(common.LoggerNameDB)

	conn, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	logger.Info("Connected to database with dialector:", zap.String("dialector", dialector.Name()))

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql handle: %w", err)
	}
	// sqlite has a single writer; one connection makes every transaction
	// serialize inside the pool instead of failing with "database is locked".
	sqlDB.SetMaxOpenConns(1)

	if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable sqlite foreign key support: %w", err)
	}

	if err := conn.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		return nil, fmt.Errorf("set sqlite journal mode: %w", err)
	}

	if err := conn.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		return nil, fmt.Errorf("set sqlite busy timeout: %w", err)
	}

	if err := conn.AutoMigrate(models.AllModels()...); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	logger.Info("Database migration completed")

	return &DB{Conn: conn}, nil
}

func UseSqliteDialector() gorm.Dialector {
	var dbPath string
	var found bool
	if dbPath, found = os.LookupEnv(common.EnvKeyFireDbPath); !found {
		dbPath = "fire_detection.db"
	}
	return sqlite.Open(dbPath + "?_foreign_keys=on&_busy_timeout=5000")
}

func UseMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open("file::memory:?cache=shared&_foreign_keys=on")
}

// UseNamedMemorySqliteDialector gives a private in-memory database per name.
func UseNamedMemorySqliteDialector(name string) gorm.Dialector {
	return sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name))
}
