// Package candidates keeps the student directory used to personalise coaching.
package candidates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"interview-insights-go/internal/types"
)

var ErrCandidateNotFound = errors.New("candidate not found")

type Student struct {
	ID         string `gorm:"primaryKey;size:64"`
	FirstName  string `gorm:"size:128"`
	LastName   string `gorm:"size:128"`
	College    string `gorm:"size:256"`
	Department string `gorm:"size:128"`
}

// Profile converts the row to the shape the prompt uses.
func (s Student) Profile() types.CandidateProfile {
	return types.CandidateProfile{
		StudentID: s.ID,
		FullName:  strings.TrimSpace(s.FirstName + " " + s.LastName),
		College:   s.College,
		Branch:    s.Department,
	}
}

type Store struct {
	db *gorm.DB
}

// Open connects to the sqlite database at dsn and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open candidate db: %w", err)
	}
	if dsn == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("candidate db handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return NewStore(db)
}

// NewStore wraps an existing gorm handle.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Student{}); err != nil {
		return nil, fmt.Errorf("migrate candidates: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, id string) (types.CandidateProfile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.CandidateProfile{}, ErrCandidateNotFound
	}
	var st Student
	err := s.db.WithContext(ctx).First(&st, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.CandidateProfile{}, fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
	}
	if err != nil {
		return types.CandidateProfile{}, fmt.Errorf("lookup candidate %s: %w", id, err)
	}
	return st.Profile(), nil
}

// Upsert inserts students, replacing rows that share an id.
func (s *Store) Upsert(ctx context.Context, students ...Student) error {
	if len(students) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "college", "department"}),
	}).Create(&students).Error
	if err != nil {
		return fmt.Errorf("upsert candidates: %w", err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Student{}).Count(&n).Error
	return n, err
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
