package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/equitas/internal/common"
	"github.com/ternarybob/equitas/internal/interfaces"
	"github.com/ternarybob/equitas/internal/storage/badger"
)

// NewStorageManager opens the configured store. Only Badger is supported.
func NewStorageManager(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	switch config.Storage.Type {
	case "", "badger":
	default:
		return nil, fmt.Errorf("unsupported storage type %q (only 'badger' is supported)", config.Storage.Type)
	}
	if config.Storage.Badger.Path == "" {
		return nil, fmt.Errorf("storage.badger.path is required")
	}

	manager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to open analysis store: %w", err)
	}
	return manager, nil
}
