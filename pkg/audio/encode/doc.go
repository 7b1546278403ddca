// ABOUTME: Audio encoder package for encoding float samples to PCM and WAV
// ABOUTME: Provides the Encoder interface, PCM encoder and WAV container writer
// Package encode provides audio encoders for offline export and live output.
//
// Supports: PCM (16-bit little-endian), WAV (RIFF/WAVE PCM16)
//
// All encoders accept interleaved float32 samples in [-1, 1]; values outside
// that range are clamped.
//
// Example:
//
//	encoder, err := encode.NewPCM(16)
//	data, err := encoder.Encode(samples)
//
//	wav, err := encode.Float32ToWAV(stereo, 48000)
package encode
