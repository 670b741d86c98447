package statestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateDocument is one persisted document in the state_documents table
type StateDocument struct {
	Name      string    `gorm:"primaryKey;size:64"`
	Body      []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName overrides the gorm table name
func (StateDocument) TableName() string {
	return "state_documents"
}

// GormBackend keeps documents as rows of the state_documents table
type GormBackend struct {
	db *gorm.DB
}

// NewGormBackend creates a backend on top of an open database
func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

// Read implements Backend
func (b *GormBackend) Read(ctx context.Context, name string) ([]byte, error) {
	var doc StateDocument
	err := b.db.WithContext(ctx).
		Where("name = ?", name).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return doc.Body, nil
}

// Write implements Backend with a single-row upsert
func (b *GormBackend) Write(ctx context.Context, name string, data []byte) error {
	doc := StateDocument{
		Name:      name,
		Body:      data,
		UpdatedAt: time.Now().UTC(),
	}

	err := b.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).
		Create(&doc).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
