// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts audio between sample rates and stretches clips in time
// Package resample provides audio sample rate conversion and time-stretch.
//
// Uses linear interpolation for converting between sample rates.
// Handles both upsampling and downsampling. Stretch applies the same
// interpolation at an arbitrary rate, so duration and pitch change together.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	outputSize := r.Resample(inputSamples, outputSamples)
//
//	half, err := resample.Stretch(samples, 2, 2.0)
package resample
