// Package repository provides data access layer abstractions and registry
package repository

import (
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// Registry provides centralized access to all repositories
type Registry struct {
	ProfileRepository  ProfileRepository
	RoomRepository     RoomRepository
	PresenceRepository PresenceRepository
	MessageRepository  MessageRepository
	BlockRepository    BlockRepository
	ReportRepository   ReportRepository

	// Database connection
	db *gorm.DB

	mu sync.RWMutex
}

// NewRegistry creates a new repository registry
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		db: db,
	}
}

// Initialize initializes all repositories
func (r *Registry) Initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return fmt.Errorf("registry has no database connection")
	}

	r.ProfileRepository = NewProfileRepository(r.db)
	r.RoomRepository = NewRoomRepository(r.db)
	r.PresenceRepository = NewPresenceRepository(r.db)
	r.MessageRepository = NewMessageRepository(r.db)
	r.BlockRepository = NewBlockRepository(r.db)
	r.ReportRepository = NewReportRepository(r.db)

	return nil
}

// GetDB returns the database connection
func (r *Registry) GetDB() *gorm.DB {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.db
}

// Close closes the registry and all resources
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db != nil {
		sqlDB, err := r.db.DB()
		if err != nil {
			return fmt.Errorf("failed to get database connection: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
