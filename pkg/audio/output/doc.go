// ABOUTME: Audio output package for live playback
// ABOUTME: Provides Output interface and oto implementation pulling from a renderer
// Package output plays rendered audio on the system device.
//
// The device pulls interleaved float32 stereo from a Renderer (such as
// graph.Context) and reports a smoothed playback clock derived from how
// far the renderer has been read.
//
// Example:
//
//	ctx := graph.NewContext(48000)
//	out := output.NewOto(ctx, output.Config{SampleRate: 48000})
//	err := out.Open()
//	now := out.CurrentTime()
package output
