// Package services defines the shared error taxonomy and context helpers used
// by every pipeline stage.
//
// Key responsibilities:
//   - Sentinel markers (validation, transfer, process, verification, stop) plus
//     the Wrap helper that attaches stage and operation detail while keeping the
//     marker visible to errors.Is.
//   - Kind and ExitCode, which turn a run error into the diagnostic label and
//     process status reported by the CLI.
//   - Context helpers that stamp run IDs, item positions, stages, and source
//     paths for logging.
package services
