// Package logs reads the persistent run log so an operator can inspect or
// follow a conversion from another terminal.
package logs
