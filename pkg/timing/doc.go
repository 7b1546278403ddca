// ABOUTME: Musical time package converting between seconds, samples, bars and SMPTE
// ABOUTME: Holds tempo and time-signature maps and provides snap and quantize
// Package timing is the single source of truth for project time.
//
// An Engine converts among:
//   - seconds from project start
//   - sample counts at the project sample rate
//   - musical time (bars, beats, sixteenth-note subdivisions)
//   - SMPTE timecode (HH:MM:SS:FF)
//
// Tempo and time-signature changes are kept in ordered maps that always
// contain an entry at time zero. Musical conversions walk both maps, so a
// musical position and its time in seconds round-trip exactly even across
// tempo changes; for a single-tempo project they reduce to
// totalBeats = seconds / (60 / bpm).
//
// Example:
//
//	e := timing.New(48000, 120)
//	m := e.SecondsToMusical(2.25) // {Bars: 1, Beats: 0, Subdivisions: 2}
//	fmt.Println(m)                // 2:1.3 (displayed 1-indexed)
//	t := e.Quantize(2.3, timing.QuantizeEighth)
package timing
