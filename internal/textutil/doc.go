// Package textutil holds small formatting helpers shared by the pipeline and
// the CLI: human-readable durations and bounded excerpts of tool output.
package textutil
