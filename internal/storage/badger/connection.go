package badger

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/equitas/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// maxGCRounds bounds one value-log garbage collection pass
const maxGCRounds = 8

// BadgerDB manages the Badger database connection
type BadgerDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	config *common.BadgerConfig
}

// NewBadgerDB opens (creating if needed) the database at config.Path
func NewBadgerDB(logger arbor.ILogger, config *common.BadgerConfig) (*BadgerDB, error) {
	if config.ResetOnStartup {
		logger.Debug().Str("path", config.Path).Msg("Deleting existing database (reset_on_startup=true)")
		if err := os.RemoveAll(config.Path); err != nil {
			logger.Warn().Err(err).Str("path", config.Path).Msg("Failed to delete database directory")
		}
	}

	if err := os.MkdirAll(config.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Cache entries are rewritten in place; older versions are never read.
	options := badgerhold.DefaultOptions
	options.Options = badger.DefaultOptions(config.Path).
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true)

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", config.Path, err)
	}

	logger.Debug().Str("path", config.Path).Msg("Badger database opened")

	return &BadgerDB{
		store:  store,
		logger: logger,
		config: config,
	}, nil
}

// Store returns the underlying badgerhold store
func (b *BadgerDB) Store() *badgerhold.Store {
	return b.store
}

// RunGC reclaims value-log space left by deleted entries
func (b *BadgerDB) RunGC() error {
	for i := 0; i < maxGCRounds; i++ {
		err := b.store.Badger().RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("value log gc failed: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (b *BadgerDB) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
