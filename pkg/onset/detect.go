// ABOUTME: RMS energy onset detection
// ABOUTME: Finds the first onset or every onset in interleaved samples
package onset

import (
	"math"
)

// Defaults applied to zero Options fields
const (
	DefaultWindowMs     = 10
	DefaultThreshold    = 0.02
	DefaultMinOnsetTime = 0.05

	// MinOnsetGap is the shortest spacing DetectAllOnsets reports
	MinOnsetGap = 0.05
)

// Options tunes detection; zero fields take the defaults
type Options struct {
	WindowMs     float64
	Threshold    float64
	MinOnsetTime float64
}

func (o Options) withDefaults() Options {
	if o.WindowMs <= 0 {
		o.WindowMs = DefaultWindowMs
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.MinOnsetTime <= 0 {
		o.MinOnsetTime = DefaultMinOnsetTime
	}
	return o
}

// scanner walks fixed RMS windows over interleaved samples
type scanner struct {
	samples    []float32
	channels   int
	windowSize int
	frames     int
	first      int
	threshold  float64
}

func newScanner(samples []float32, sampleRate, channels int, opts Options) (scanner, bool) {
	if sampleRate <= 0 || channels <= 0 {
		return scanner{}, false
	}
	opts = opts.withDefaults()

	return scanner{
		samples:    samples,
		channels:   channels,
		windowSize: max(1, int(math.Floor(float64(sampleRate)*opts.WindowMs/1000))),
		frames:     len(samples) / channels,
		first:      int(math.Floor(opts.MinOnsetTime * float64(sampleRate))),
		threshold:  opts.Threshold,
	}, true
}

// each calls fn with the start frame of every window whose RMS is above
// the threshold, stopping when fn returns false
func (s scanner) each(fn func(frame int) bool) {
	for i := s.first; i < s.frames-s.windowSize; i += s.windowSize {
		if s.rms(i) > s.threshold && !fn(i) {
			return
		}
	}
}

func (s scanner) rms(frame int) float64 {
	window := s.samples[frame*s.channels : (frame+s.windowSize)*s.channels]
	var sumSquares float64
	for _, v := range window {
		sumSquares += float64(v) * float64(v)
	}
	return math.Sqrt(sumSquares / float64(len(window)))
}

// DetectFirstOnset returns the time in seconds of the first window above
// threshold, or 0 when there is none
func DetectFirstOnset(samples []float32, sampleRate, channels int, opts Options) float64 {
	s, ok := newScanner(samples, sampleRate, channels, opts)
	if !ok {
		return 0
	}

	onset := 0.0
	s.each(func(frame int) bool {
		onset = float64(frame) / float64(sampleRate)
		return false
	})
	return onset
}

// DetectAllOnsets returns the start of every window above threshold that
// is more than MinOnsetGap after the previous onset
func DetectAllOnsets(samples []float32, sampleRate, channels int, opts Options) []float64 {
	s, ok := newScanner(samples, sampleRate, channels, opts)
	if !ok {
		return nil
	}

	minGap := int(math.Floor(float64(sampleRate) * MinOnsetGap))
	var onsets []float64
	last := -1

	s.each(func(frame int) bool {
		if last < 0 || frame-last > minGap {
			onsets = append(onsets, float64(frame)/float64(sampleRate))
			last = frame
		}
		return true
	})
	return onsets
}

// CalculateOptimalThreshold suggests rms + (peak - rms) * 0.2
func CalculateOptimalThreshold(samples []float32, channels int) float64 {
	if channels <= 0 {
		return 0
	}
	n := (len(samples) / channels) * channels
	if n == 0 {
		return 0
	}

	var peak, sumSquares float64
	for _, v := range samples[:n] {
		a := math.Abs(float64(v))
		peak = math.Max(peak, a)
		sumSquares += a * a
	}

	rms := math.Sqrt(sumSquares / float64(n))
	return rms + (peak-rms)*0.2
}
