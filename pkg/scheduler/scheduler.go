// ABOUTME: Look-ahead playback scheduler
// ABOUTME: Hands clips to the audio graph at exact output times from a polling loop
package scheduler

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/444radio/dawcore/pkg/audio"
	"github.com/444radio/dawcore/pkg/graph"
)

// Graph is the audio graph the scheduler drives; *graph.Context satisfies it
type Graph interface {
	CurrentTime() float64
	NewSource(buf *audio.Buffer) *graph.Source
	NewBus(id string) *graph.Bus
	RemoveBus(id string)
}

// Config holds scheduling and ramp timings
type Config struct {
	LookAhead  time.Duration
	Interval   time.Duration
	VolumeRamp time.Duration
	MuteRamp   time.Duration
	PanRamp    time.Duration
}

// DefaultConfig returns a 100ms look-ahead polled every 25ms
func DefaultConfig() Config {
	return Config{
		LookAhead:  100 * time.Millisecond,
		Interval:   25 * time.Millisecond,
		VolumeRamp: 50 * time.Millisecond,
		MuteRamp:   20 * time.Millisecond,
		PanRamp:    50 * time.Millisecond,
	}
}

// Stats tracks scheduler metrics
type Stats struct {
	Scheduled int64
	Dropped   int64
	Late      int64
}

type activeSource struct {
	info SourceInfo
	src  *graph.Source
}

// session is one Start call
type session struct {
	clips       []ScheduledClip
	next        int
	projectTime float64
	anchor      float64
	first       bool
	onComplete  func()
	cancel      context.CancelFunc
}

// Scheduler owns the track states and live sources of one playback session
type Scheduler struct {
	graph Graph
	cfg   Config

	mu      sync.Mutex
	tracks  map[string]*TrackState
	sources map[string][]*activeSource
	session *session
	stats   Stats

	// playhead outlives session once every clip is scheduled, until Stop
	playhead *session
}

// New creates a scheduler over g; zero Config fields take the defaults
func New(g Graph, cfg Config) *Scheduler {
	def := DefaultConfig()
	if cfg.LookAhead <= 0 {
		cfg.LookAhead = def.LookAhead
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.VolumeRamp <= 0 {
		cfg.VolumeRamp = def.VolumeRamp
	}
	if cfg.MuteRamp <= 0 {
		cfg.MuteRamp = def.MuteRamp
	}
	if cfg.PanRamp <= 0 {
		cfg.PanRamp = def.PanRamp
	}

	return &Scheduler{
		graph:   g,
		cfg:     cfg,
		tracks:  make(map[string]*TrackState),
		sources: make(map[string][]*activeSource),
	}
}

// Start schedules clips from projectTime onwards, stopping any previous
// session. onComplete runs once, after the last clip has been handed to the
// graph. The first poll runs before Start returns.
func (s *Scheduler) Start(clips []ScheduledClip, projectTime float64, onComplete func()) {
	s.Stop()

	sorted := make([]ScheduledClip, len(clips))
	copy(sorted, clips)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime < sorted[j].StartTime
	})

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		clips:       sorted,
		projectTime: projectTime,
		anchor:      s.graph.CurrentTime(),
		first:       true,
		onComplete:  onComplete,
		cancel:      cancel,
	}

	s.mu.Lock()
	s.session = sess
	s.playhead = sess
	s.mu.Unlock()

	log.Printf("Scheduler started: %d clips from %.3fs (output %.3fs)", len(sorted), projectTime, sess.anchor)

	if s.poll(sess) {
		return
	}
	go s.run(ctx, sess)
}

// run polls until the session is exhausted or stopped
func (s *Scheduler) run(ctx context.Context, sess *session) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.poll(sess) {
				return
			}
		}
	}
}

// Poll runs one scheduling pass of the current session. It is called by the
// ticker and may also be called from an output callback.
func (s *Scheduler) Poll() {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()

	if sess != nil {
		s.poll(sess)
	}
}

// poll schedules every clip starting inside the look-ahead window and
// reports whether the session is finished
func (s *Scheduler) poll(sess *session) bool {
	now := s.graph.CurrentTime()

	s.mu.Lock()
	if s.session != sess {
		s.mu.Unlock()
		return true
	}

	current := OutputToProjectTime(now, sess.projectTime, sess.anchor)
	windowEnd := current + s.cfg.LookAhead.Seconds()

	for sess.next < len(sess.clips) && sess.clips[sess.next].StartTime < windowEnd {
		clip := sess.clips[sess.next]
		sess.next++
		s.scheduleClip(sess, clip, current, now)
	}
	sess.first = false

	done := sess.next >= len(sess.clips)
	if done {
		s.session = nil
		sess.cancel()
	}
	s.mu.Unlock()

	if done {
		log.Printf("Scheduler: all %d clips scheduled", len(sess.clips))
		if sess.onComplete != nil {
			sess.onComplete()
		}
	}
	return done
}

// scheduleClip starts one clip on its track bus; caller holds mu
func (s *Scheduler) scheduleClip(sess *session, clip ScheduledClip, current, now float64) {
	if err := clip.Validate(); err != nil {
		log.Printf("Dropped clip: %v", err)
		s.stats.Dropped++
		return
	}

	track, ok := s.tracks[clip.TrackID]
	if !ok {
		log.Printf("Track %s not found for clip %s", clip.TrackID, clip.ClipID)
		s.stats.Dropped++
		return
	}

	if !clip.Loop && clip.End() <= current {
		return
	}

	when := ProjectToOutputTime(clip.StartTime, sess.projectTime, sess.anchor)
	offset := clip.Offset
	duration := clip.Duration

	if clip.StartTime < current {
		if sess.first {
			// Resume mid-clip from the playhead
			elapsed := ProjectTimeToClipOffset(current, clip.StartTime)
			when = now
			offset += elapsed
			duration -= elapsed
			if clip.Loop {
				offset = math.Mod(offset, clip.Buffer.Duration())
			}
			if duration <= 0 {
				return
			}
		} else {
			log.Printf("Late clip %s: %.1fms behind", clip.ClipID, (current-clip.StartTime)*1000)
			s.stats.Late++
		}
	}

	src := s.graph.NewSource(clip.Buffer)
	src.SetLoop(clip.Loop)
	src.Connect(track.Bus)

	active := &activeSource{
		info: SourceInfo{
			TrackID:  clip.TrackID,
			ClipID:   clip.ClipID,
			When:     when,
			Offset:   offset,
			Duration: duration,
		},
		src: src,
	}
	src.OnEnded(func() {
		s.removeSource(clip.TrackID, active)
	})

	if err := src.Start(when, offset, duration); err != nil {
		log.Printf("Failed to start clip %s: %v", clip.ClipID, err)
		s.stats.Dropped++
		return
	}

	s.sources[clip.TrackID] = append(s.sources[clip.TrackID], active)
	s.stats.Scheduled++

	if s.stats.Scheduled <= 5 {
		log.Printf("Scheduled clip %s on %s at %.3fs (offset %.3fs, duration %.3fs)",
			clip.ClipID, clip.TrackID, when, offset, duration)
	}
}

func (s *Scheduler) removeSource(trackID string, a *activeSource) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.sources[trackID]
	for i, other := range list {
		if other == a {
			s.sources[trackID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(s.sources[trackID]) == 0 {
		delete(s.sources, trackID)
	}
}

// Stop ends the session and stops every scheduled source. It is safe to
// call at any time, including from onComplete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		s.session.cancel()
		s.session = nil
	}
	s.playhead = nil
	for trackID, list := range s.sources {
		stopSources(list)
		delete(s.sources, trackID)
	}
}

// StopTrack stops the sources scheduled on one track
func (s *Scheduler) StopTrack(trackID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stopSources(s.sources[trackID])
	delete(s.sources, trackID)
}

func stopSources(list []*activeSource) {
	for _, a := range list {
		err := a.src.Stop()
		if err == nil || errors.Is(err, graph.ErrSourceStopped) || errors.Is(err, graph.ErrSourceNotStarted) {
			continue
		}
		log.Printf("Failed to stop clip %s: %v", a.info.ClipID, err)
	}
}

// Running reports whether a session still has clips to schedule
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// ProjectTime returns the rendered playhead of the last Start, which keeps
// moving after every clip is scheduled; false once stopped
func (s *Scheduler) ProjectTime() (float64, bool) {
	return s.ProjectTimeAt(s.graph.CurrentTime())
}

// ProjectTimeAt maps outputTime, on the graph's timeline, to project time
// for the last Start. Pass the device's heard time to track what is audible.
func (s *Scheduler) ProjectTimeAt(outputTime float64) (float64, bool) {
	s.mu.Lock()
	sess := s.playhead
	s.mu.Unlock()

	if sess == nil {
		return 0, false
	}
	return OutputToProjectTime(outputTime, sess.projectTime, sess.anchor), true
}

// ActiveSourceCount returns the number of live sources across all tracks
func (s *Scheduler) ActiveSourceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, list := range s.sources {
		count += len(list)
	}
	return count
}

// Sources describes the live sources ordered by output start time
func (s *Scheduler) Sources() []SourceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []SourceInfo
	for _, list := range s.sources {
		for _, a := range list {
			out = append(out, a.info)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].When == out[j].When {
			return out[i].ClipID < out[j].ClipID
		}
		return out[i].When < out[j].When
	})
	return out
}

// Stats returns scheduler statistics
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
