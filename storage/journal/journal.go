// Package journal persists the audit event stream into a SQL database so the
// history survives independently of the key-value state.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tokensale/core/events"
	"tokensale/core/types"
)

// ErrPathRequired is returned when no database path was configured.
var ErrPathRequired = errors.New("journal: database path must be configured")

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// Record is a persisted audit event.
type Record struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq        uint64    `gorm:"uniqueIndex;not null"`
	Type       string    `gorm:"index;not null"`
	Attributes string    `gorm:"type:text;not null"`
	CreatedAt  time.Time
}

// Event decodes the record back into the generic audit payload.
func (r Record) Event() (*types.Event, error) {
	attrs := map[string]string{}
	if strings.TrimSpace(r.Attributes) != "" {
		if err := json.Unmarshal([]byte(r.Attributes), &attrs); err != nil {
			return nil, fmt.Errorf("decode attributes: %w", err)
		}
	}
	return &types.Event{Type: r.Type, Attributes: attrs}, nil
}

// Journal appends events to the records table in emission order.
type Journal struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open connects to the sqlite database at path and migrates the schema.
func Open(path string, log *slog.Logger) (*Journal, error) {
	dsn := strings.TrimSpace(path)
	if dsn == "" {
		return nil, ErrPathRequired
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if dsn == MemoryDSN {
		// Every pooled connection would otherwise see its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("journal pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Journal{db: db, logger: log, now: time.Now}, nil
}

// Close releases the underlying connection pool.
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

// Append stores evt after the current tail of the journal.
func (j *Journal) Append(ctx context.Context, evt *types.Event) error {
	if j == nil || j.db == nil {
		return fmt.Errorf("journal not configured")
	}
	if evt == nil || strings.TrimSpace(evt.Type) == "" {
		return fmt.Errorf("journal: event type required")
	}
	attrs := evt.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	return j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tail struct{ Max uint64 }
		if err := tx.Model(&Record{}).Select("COALESCE(MAX(seq), 0) AS max").Scan(&tail).Error; err != nil {
			return fmt.Errorf("journal tail: %w", err)
		}
		record := Record{
			ID:         uuid.New(),
			Seq:        tail.Max + 1,
			Type:       evt.Type,
			Attributes: string(encoded),
			CreatedAt:  j.now().UTC(),
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
		return nil
	})
}

// List returns up to limit records in sequence order, optionally restricted
// to a single event type. A non-positive limit returns every match.
func (j *Journal) List(ctx context.Context, eventType string, limit int) ([]Record, error) {
	if j == nil || j.db == nil {
		return nil, fmt.Errorf("journal not configured")
	}
	query := j.db.WithContext(ctx).Model(&Record{}).Order("seq ASC")
	if trimmed := strings.TrimSpace(eventType); trimmed != "" {
		query = query.Where("type = ?", trimmed)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []Record
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records.
func (j *Journal) Count(ctx context.Context) (int64, error) {
	if j == nil || j.db == nil {
		return 0, fmt.Errorf("journal not configured")
	}
	var total int64
	if err := j.db.WithContext(ctx).Model(&Record{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return total, nil
}

// Emit implements events.Emitter. Events are emitted after the state commit,
// so a failed insert is logged rather than surfaced.
func (j *Journal) Emit(evt events.Event) {
	if j == nil || evt == nil {
		return
	}
	var record *types.Event
	if payload, ok := evt.(events.Payload); ok {
		record = payload.Event()
	} else {
		record = &types.Event{Type: evt.EventType()}
	}
	if err := j.Append(context.Background(), record); err != nil {
		j.logger.Error("journal append failed", slog.String("event", evt.EventType()), slog.Any("error", err))
	}
}
