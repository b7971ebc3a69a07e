package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/equitas/internal/common"
	"github.com/ternarybob/equitas/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db     *BadgerDB
	cache  interfaces.AnalysisCache
	logger arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:     db,
		cache:  NewAnalysisCache(db, logger),
		logger: logger,
	}

	logger.Debug().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

// AnalysisCache returns the analysis cache
func (m *Manager) AnalysisCache() interfaces.AnalysisCache {
	return m.cache
}

// Close closes the database connection
func (m *Manager) Close() error {
	return m.db.Close()
}
