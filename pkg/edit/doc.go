// ABOUTME: Non-destructive clip editing package
// ABOUTME: Regions, fades, crossfades, gain envelopes and buffer transforms
// Package edit describes clip edits without touching source buffers.
//
// A ClipRegion records trim bounds, fades, gain, reverse, pitch shift and
// time stretch for one clip. Live playback applies fades and envelopes as
// graph.Param automation; offline rendering bakes the same edits into a new
// buffer with Render.
//
// Pitch shift is a playback-rate change, so it also changes duration, and
// TimeStretch is plain linear interpolation, so it also changes pitch.
//
// Example:
//
//	ed := edit.NewEditor(48000)
//	ed.CreateRegion("clip-1", 0, 4)
//	ed.UpdateRegion("clip-1", edit.RegionUpdate{
//		FadeIn: &edit.FadeConfig{Type: edit.FadeSCurve, Duration: 0.5},
//	})
//
//	region, _ := ed.Region("clip-1")
//	rendered, err := edit.Render(buf, region)
package edit
