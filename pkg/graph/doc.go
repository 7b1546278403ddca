// ABOUTME: Minimal audio graph for sample-accurate live playback
// ABOUTME: Provides automatable params, buffer sources, track buses and a pull renderer
// Package graph renders scheduled audio buffers to interleaved stereo.
//
// A Context owns an output timeline measured in rendered frames. Sources
// play an audio.Buffer starting at an exact context time and feed a Bus.
// Each Bus applies a gain and an equal-power stereo pan whose values are
// Params: timelines of set, ramp and curve events evaluated per sample.
//
// The renderer is pulled: an output device calls Read (or Render) and the
// context advances by exactly the frames produced. Start times are
// honoured to the sample regardless of when Start was called.
//
// Example:
//
//	ctx := graph.NewContext(48000)
//	bus := ctx.NewBus("drums")
//	src := ctx.NewSource(buf)
//	src.Connect(bus)
//	src.Start(ctx.CurrentTime()+0.1, 0, 0)
//	bus.Gain().RampTo(ctx.CurrentTime(), 0.5, 0.05)
package graph
