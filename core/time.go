// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"

	"github.com/loov/hrtime"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	var interval time.Duration
	if cfg.FramesPerSecond == 0 {
		interval = time.Nanosecond
	} else {
		interval = time.Second / time.Duration(cfg.FramesPerSecond)
	}

	eventInterval := cfg.EventPollDelay
	if eventInterval <= 0 {
		eventInterval = interval
	}

	return &Time{
		fps:         cfg.FramesPerSecond,
		fpsTicker:   time.NewTicker(interval),
		eventTicker: time.NewTicker(eventInterval),
		last:        hrtime.Now(),
	}
}

// Time contains all the time services and tickers
type Time struct {
	fps       int
	fpsTicker *time.Ticker

	eventTicker *time.Ticker

	last   time.Duration
	frames int64
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// FpsTicker gets the initialized fps ticker
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// EventTicker gets the initialized event ticker for the event loop
func (t *Time) EventTicker() *time.Ticker {
	return t.eventTicker
}

// Frame marks the start of a frame and returns the time the
// previous frame took, measured with the high resolution clock.
func (t *Time) Frame() time.Duration {
	now := hrtime.Now()
	elapsed := now - t.last
	t.last = now
	t.frames++
	return elapsed
}

// Frames is the number of frames marked so far.
func (t *Time) Frames() int64 {
	return t.frames
}

// Stop stops the tickers.
func (t *Time) Stop() {
	t.fpsTicker.Stop()
	t.eventTicker.Stop()
}
