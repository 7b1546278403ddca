// ABOUTME: Tests for the dawcore command line
// ABOUTME: Tests meter parsing, the timecode command output and align tempo checks
package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/444radio/dawcore/pkg/onset"
)

func TestParseMeter(t *testing.T) {
	tests := []struct {
		input   string
		num     int
		den     int
		wantErr bool
	}{
		{"4/4", 4, 4, false},
		{"7/8", 7, 8, false},
		{"3", 0, 0, true},
		{"x/4", 0, 0, true},
		{"3/y", 0, 0, true},
	}

	for _, tt := range tests {
		num, den, err := parseMeter(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: expected error %v, got %v", tt.input, tt.wantErr, err)
			continue
		}
		if num != tt.num || den != tt.den {
			t.Errorf("%s: expected %d/%d, got %d/%d", tt.input, tt.num, tt.den, num, den)
		}
	}
}

func TestTimecodeCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"--log-file", filepath.Join(t.TempDir(), "test.log"),
		"--sample-rate", "48000",
		"timecode", "4.5", "2:1.1", "--bpm", "120", "--meter", "4/4",
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out.String())
	}
	for _, want := range []string{"3:2.1", "00:00:04:15", "sample 216000"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("expected %q in %q", want, lines[0])
		}
	}
	if !strings.Contains(lines[1], "2.000s") {
		t.Errorf("expected bar 2 at 2.000s, got %q", lines[1])
	}
}

func TestAlignRejectsBadTempo(t *testing.T) {
	for _, grid := range []string{"bar", "beat", "subdivision"} {
		t.Run(grid, func(t *testing.T) {
			rootCmd.SetOut(&bytes.Buffer{})
			rootCmd.SetArgs([]string{
				"--log-file", filepath.Join(t.TempDir(), "test.log"),
				"align", filepath.Join(t.TempDir(), "missing.wav"), "--grid", grid, "--bpm", "0",
			})

			err := rootCmd.Execute()
			if !errors.Is(err, onset.ErrInvalidGrid) {
				t.Errorf("expected ErrInvalidGrid before decoding, got %v", err)
			}
		})
	}
}
