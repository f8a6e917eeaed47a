// Package ffprobe runs ffprobe and exposes the stream and duration data the
// integrity check relies on.
package ffprobe
