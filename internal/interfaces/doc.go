// Package interfaces documents the core abstractions used throughout the application.
//
// The stores, the sync engine and the HTTP layer only talk to each other
// through small consumer-side interfaces; this package lists them and holds
// the compile-time checks that tie them to their implementations.
//
// # Interface Categories
//
// ## Storage
//
//   - storage.Backend: whole-record Load/Save (internal/storage/backend.go).
//     Implemented by MemoryBackend, FileBackend and records.Repository.
//
// ## Sync Engine
//
//   - syncengine.Queue: List/Get/RemoveItem over the offline queue
//   - syncengine.Uploader: the upload step (uploader.Simulated)
//   - syncengine.Encrypter: the encryption step (crypto.ItemSealer)
//   - syncengine.ProgressReporter: drain progress (database/sync)
//   - syncengine.AuditLogger: drain audit events (audit.Service)
//
// ## Capture
//
//   - capture.Analyzer, capture.AnalysisSaver, capture.AnalysisScheduler
//
// ## Background Tasks
//
//   - tasks.Drainer, tasks.RecordingAnalyzer, tasks.AuditPruner
//
// # Adding a Real Uploader
//
// Replace the simulated uploader with a network client:
//
//  1. Implement syncengine.Uploader in internal/uploader/
//
//     type HTTPUploader struct {
//         baseURL    string
//         httpClient *http.Client
//     }
//
//     func (u *HTTPUploader) Upload(ctx context.Context, item entities.QueuedItem) error
//
//     var _ syncengine.Uploader = (*HTTPUploader)(nil)
//
//  2. Pass it to syncengine.New in entrypoint/components.go
//
// The engine bounds every call with its own timeout and treats a late
// success as a failure, so the uploader only has to honour ctx.
//
// # Adding a New Storage Backend
//
//  1. Implement Load and Save, returning storage.ErrNotFound for a missing key
//  2. Add a STORAGE_BACKEND value in internal/config and select it in Build
//  3. Add a compile-time check:
//
//     var _ storage.Backend = (*MyBackend)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
