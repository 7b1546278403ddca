// ABOUTME: Audio decoder package for multiple container support
// ABOUTME: Provides Decoder interface and implementations for MP3, FLAC, WAV
// Package decode turns encoded audio files into decoded float buffers.
//
// Supports: MP3 (go-mp3), FLAC (mewkiz/flac), WAV (go-audio/wav)
//
// All decoders implement the Decoder interface and return an *audio.Buffer
// of interleaved float32 samples in [-1, 1] at the file's native rate.
//
// Example:
//
//	decoder, err := decode.ForPath("drums.flac")
//	buf, err := decoder.Decode(file)
//
//	buf, err := decode.File("vocals.mp3")
package decode
