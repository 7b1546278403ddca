// ABOUTME: Tests for MP3 decoder
// ABOUTME: Tests MP3 decoder rejection of invalid streams
package decode

import (
	"bytes"
	"testing"
)

func TestMP3DecodeInvalidData(t *testing.T) {
	_, err := MP3Decoder{}.Decode(bytes.NewReader([]byte("definitely not an mp3")))
	if err == nil {
		t.Fatal("expected error for invalid mp3 data, got nil")
	}
}

func TestMP3DecodeEmpty(t *testing.T) {
	_, err := MP3Decoder{}.Decode(bytes.NewReader(nil))
	if err == nil {
		t.Fatal("expected error for empty input, got nil")
	}
}
