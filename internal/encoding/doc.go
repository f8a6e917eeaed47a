// Package encoding runs the transcode step for a staged recording.
//
// Supervisor starts ffmpeg and a progress Monitor side by side and joins both
// before reporting an Outcome. The Monitor polls the file ffmpeg writes with
// -progress, turns it into Snapshots, and drives a Renderer (a terminal bar or
// sampled log lines). Verifier compares source and output durations reported
// by ffprobe to decide whether the converted file may replace the original.
package encoding
