// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides the decoded-buffer types shared by every part of dawcore.
//
// This package defines:
//   - Format: sample rate and channel count of a decoded stream
//   - Buffer: interleaved float32 samples with their Format
//
// It also provides conversions between float samples and integer PCM:
//   - float32 ↔ int16 (with clamping, used by WAV export and output)
//   - N-bit integer → float32 (used by decoders)
//
// Example:
//
//	buf := audio.NewBuffer(audio.Format{SampleRate: 48000, Channels: 2}, 48000)
//	fmt.Println(buf.Duration()) // 1
//
//	pcm := audio.FloatToInt16(buf.Samples[0])
package audio
