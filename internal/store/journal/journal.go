// Package journal writes a diagnostic trail of decisions and order
// submissions to SQLite via Gorm. The journal is write-only observability:
// nothing in the decision path reads it back, and a failed insert is logged
// and swallowed so bookkeeping can never alter trading behavior.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"rangebreak/internal/logger"
)

// DecisionRecord captures one buy-attempt evaluation.
type DecisionRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"index"`
	Outcome   string    `gorm:"index"`
	Current   float64
	Target    float64
	MA5       float64
	MA10      float64
	Quantity  int64
	Detail    string
	CreatedAt time.Time
}

// OrderRecord captures one order submission and the venue's answer.
type OrderRecord struct {
	ID            uint   `gorm:"primaryKey"`
	ClientOrderID string `gorm:"index"`
	VenueOrderID  string
	Symbol        string `gorm:"index"`
	Side          string
	Quantity      int64
	TimeInForce   string
	Status        string
	RetryAfterMs  int64
	Message       string
	CreatedAt     time.Time
}

type Journal struct {
	db *gorm.DB
}

// Open creates (or migrates) the journal database at path.
func Open(path string) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("journal: path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal: create dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	if err := db.AutoMigrate(&DecisionRecord{}, &OrderRecord{}); err != nil {
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	return &Journal{db: db}, nil
}

// RecordDecision appends one decision row. Safe on a nil receiver.
func (j *Journal) RecordDecision(rec DecisionRecord) {
	if j == nil || j.db == nil {
		return
	}
	if err := j.db.Create(&rec).Error; err != nil {
		logger.Warnf("journal: decision insert failed: %v", err)
	}
}

// RecordOrder appends one order row. Safe on a nil receiver.
func (j *Journal) RecordOrder(rec OrderRecord) {
	if j == nil || j.db == nil {
		return
	}
	if err := j.db.Create(&rec).Error; err != nil {
		logger.Warnf("journal: order insert failed: %v", err)
	}
}

// Close releases the underlying connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
