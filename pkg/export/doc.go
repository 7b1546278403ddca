// ABOUTME: Offline mixdown and WAV export package
// ABOUTME: Renders tracks on a worker goroutine and writes PCM16 WAV files
// Package export renders a project offline and writes it as WAV.
//
// Mixing runs on a Worker goroutine that owns the project state. Callers
// talk to it with typed messages:
//
//	Init, LoadClip, UpdateTrack, RenderMix, Clear
//
// and each request gets exactly one reply:
//
//	Inited, ClipLoaded, TrackUpdated, RenderDone, Cleared, WorkerError
//
// Sample data crosses the boundary as an OwnedBuffer, which can be taken
// only once, so the sender never touches samples the worker now owns.
//
// Exporter drives the worker for a whole project:
//
//	ex := export.NewExporter(48000)
//	path, err := ex.ExportAndDownload(ctx, tracks, "demo", "exports", export.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
package export
