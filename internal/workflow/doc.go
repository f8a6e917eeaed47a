// Package workflow drives one conversion run over the recordings a catalog
// lists.
//
// For each candidate the Manager checks the stop sentinel, maps the remote
// path into the staging tree, fetches the recording, transcodes it while
// progress is rendered, verifies the output duration and finally commits the
// converted file before deleting the source. Items are handled strictly one
// at a time. The first failing item aborts the run; recordings outside every
// source root are skipped. The stop sentinel is only consulted between items,
// so an item that has started always finishes or fails on its own terms.
//
// Outcomes are narrated on the configured writer, logged, stored in the
// history ledger, counted in metrics and pushed as notifications. Ledger,
// metrics and notification failures are logged and never affect the run.
package workflow
