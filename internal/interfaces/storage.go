package interfaces

// StorageManager - interface for the persistent stores
type StorageManager interface {
	AnalysisCache() AnalysisCache
	Close() error
}
