package config

// Default paths for local state
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./khelo.db"

	// DefaultStorageDir holds the queue and settings records when the file
	// storage backend is selected
	DefaultStorageDir = "./khelo-data"
)

// Storage backends for the queue and settings records
const (
	StorageBackendDatabase = "database"
	StorageBackendFile     = "file"
)
