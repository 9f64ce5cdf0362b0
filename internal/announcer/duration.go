package announcer

import (
	"os"
	"time"
)

// DurationFunc estimates how long a media file plays for.
type DurationFunc func(path string) time.Duration

const (
	fallbackDuration = 5 * time.Second
	minDuration      = 3 * time.Second
	maxDuration      = 30 * time.Second

	// Rough MP3 bitrate assumption, 192 kbit/s.
	bytesPerSecond = 24 * 1024
)

// EstimateFileDuration guesses playback length from file size, clamped to a
// sane window. Unreadable files get a fixed fallback so the ring loop keeps
// a steady cadence either way.
func EstimateFileDuration(path string) time.Duration {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return fallbackDuration
	}

	d := time.Duration(info.Size()/bytesPerSecond) * time.Second
	if d < minDuration {
		return minDuration
	}
	if d > maxDuration {
		return maxDuration
	}
	return d
}
