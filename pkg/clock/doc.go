// ABOUTME: Output clock package for smoothing device-reported playback positions
// ABOUTME: Tracks offset and drift between the audio device and the wall clock
// Package clock estimates the playback position of an audio device.
//
// Audio backends pull samples in bursts, so the raw "frames rendered"
// count jumps forward in steps. OutputClock treats each burst as a
// measurement of device time against the wall clock and keeps a
// filtered offset and drift, giving a smooth, monotonic time that the
// scheduler can poll between callbacks.
//
// Example:
//
//	c := clock.New()
//	c.Observe(framesRendered/float64(rate), time.Now())
//	now := c.Now() // seconds of device time
package clock
