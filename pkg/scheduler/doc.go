// ABOUTME: Look-ahead clip scheduler package
// ABOUTME: Schedules clips onto the audio graph and ramps track controls
// Package scheduler plays a project's clips through a graph.Context.
//
// Start captures one output-clock anchor and then, every Interval, schedules
// each clip whose start falls inside the next LookAhead of project time.
// A clip starting at project time s is started on the graph at
//
//	anchor + (s - projectStart)
//
// so every track shares one time base. The graph's renderer honours those
// start times to the sample; the poll loop only decides what to hand it.
//
// Track volume, mute, solo and pan changes ramp the track bus params and
// never restart playback.
//
// Example:
//
//	sched := scheduler.New(ctx, scheduler.DefaultConfig())
//	sched.AddTrack("drums", 0.8, 0)
//	sched.Start(clips, 0, func() { log.Printf("All clips scheduled") })
//	defer sched.Stop()
//
//	sched.SetTrackMute("drums", true)
package scheduler
