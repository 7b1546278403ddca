// ABOUTME: Onset detection package
// ABOUTME: RMS transient detection, beat and bar auto-alignment, tempo estimation
// Package onset finds transients in decoded audio by RMS energy.
//
// A window of WindowMs slides across the audio, skipping the first
// MinOnsetTime seconds so clicks at sample 0 are ignored. A window whose RMS
// exceeds Threshold is an onset. On top of that the package offers:
//
//   - AutoAlignClipToBeat and AutoAlignClipToBar to move a clip so its first
//     onset lands on the grid
//   - AnalyzeTempo to estimate BPM from the median onset spacing
//   - CalculateOptimalThreshold to suggest a threshold from a clip's own dynamics
//
// Example:
//
//	a, err := onset.AlignToBeat(buf, 1.0, 120, onset.Options{})
//	if err != nil {
//		return err
//	}
//	clip.StartTime = a.AlignedStartTime
package onset
