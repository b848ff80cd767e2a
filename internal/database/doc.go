// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── records/         # JSON document records (storage.Backend)
//	├── sync/            # Drain progress tracking
//	├── analyses/        # Persisted analysis results
//	└── audit/           # Audit events
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./khelo.db")
//
//	backend := records.NewRepository(db.DB)
//	queue := queuestore.New(backend)
//	progress := sync.NewRepository(db.DB)
//
// # Interface Implementations
//
//   - records.Repository: implements storage.Backend
//   - sync.Repository: implements syncengine.ProgressReporter
//   - analyses.Repository: implements capture.AnalysisSaver
//   - audit.Repository: backs audit.Service
package database
