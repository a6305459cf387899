package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is the row layout of the SQL-backed store.
type Entry struct {
	Key       string         `gorm:"column:store_key;primaryKey;size:255"`
	Value     datatypes.JSON `gorm:"column:value"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

// TableName pins the table used by the store.
func (Entry) TableName() string {
	return "kv_entries"
}

// SQL persists values in a relational table through gorm.
type SQL struct {
	db *gorm.DB
}

// NewSQL migrates the backing table and returns the store.
func NewSQL(db *gorm.DB) (*SQL, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate kv_entries: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry Entry
	err := s.db.WithContext(ctx).Where("store_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(entry.Value), true, nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	entry := Entry{Key: key, Value: datatypes.JSON(value), UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("store_key = ?", key).Delete(&Entry{}).Error
}

func (s *SQL) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	pattern := strings.NewReplacer("%", `\%`, "_", `\_`).Replace(prefix) + "%"
	err := s.db.WithContext(ctx).Model(&Entry{}).
		Where(`store_key LIKE ? ESCAPE '\'`, pattern).
		Order("store_key").
		Pluck("store_key", &keys).Error
	return keys, err
}
