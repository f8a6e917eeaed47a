// Package preflight provides readiness checks for the local directories,
// external binaries and remote services a conversion run depends on.
//
// The run command calls RunAll before touching any recording and refuses to
// start when a check fails. The check command prints every Result.
package preflight
