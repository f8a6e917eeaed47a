// Package main hosts the tstomkv CLI.
//
// The Cobra command tree resolves configuration, opens the transfer channel
// and hands a fully wired workflow.Manager to the run command. The remaining
// commands are operator tools: listing pending recordings, requesting a stop,
// running preflight checks and reading the history ledger.
package main
