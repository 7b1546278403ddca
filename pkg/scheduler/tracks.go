// ABOUTME: Per-track volume, pan, mute and solo controls
// ABOUTME: Drives each track bus gain so mute and solo never lose the set volume
package scheduler

import (
	"fmt"
	"log"
	"sort"
)

// AddTrack registers a track and its bus, replacing any earlier state for id
func (s *Scheduler) AddTrack(id string, volume, pan float64) TrackState {
	s.mu.Lock()
	defer s.mu.Unlock()

	track := &TrackState{
		ID:     id,
		Bus:    s.graph.NewBus(id),
		Volume: clamp(volume, 0, 1),
		Pan:    clamp(pan, -1, 1),
	}
	s.tracks[id] = track

	now := s.graph.CurrentTime()
	track.Bus.Gain().SetValueNow(now, s.effectiveGain(track))
	track.Bus.Pan().SetValueNow(now, track.Pan)

	return *track
}

// RemoveTrack stops the track's sources and drops its bus
func (s *Scheduler) RemoveTrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tracks[id]; !ok {
		return
	}
	stopSources(s.sources[id])
	delete(s.sources, id)
	delete(s.tracks, id)
	s.graph.RemoveBus(id)
}

// Track returns a copy of one track's state
func (s *Scheduler) Track(id string) (TrackState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	track, ok := s.tracks[id]
	if !ok {
		return TrackState{}, false
	}
	return *track, true
}

// Tracks returns every track ordered by id
func (s *Scheduler) Tracks() []TrackState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TrackState, 0, len(s.tracks))
	for _, track := range s.tracks {
		out = append(out, *track)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// SetTrackVolume sets a track's volume in [0, 1]. Unless immediate, the bus
// ramps to it. A muted track keeps the new volume for when it is unmuted.
func (s *Scheduler) SetTrackVolume(id string, volume float64, immediate bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	track, ok := s.tracks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	track.Volume = clamp(volume, 0, 1)

	now := s.graph.CurrentTime()
	if immediate {
		track.Bus.Gain().SetValueNow(now, s.effectiveGain(track))
	} else {
		track.Bus.Gain().RampTo(now, s.effectiveGain(track), s.cfg.VolumeRamp.Seconds())
	}
	return nil
}

// SetTrackMute silences or restores a track
func (s *Scheduler) SetTrackMute(id string, mute bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	track, ok := s.tracks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	track.Mute = mute

	track.Bus.Gain().RampTo(s.graph.CurrentTime(), s.effectiveGain(track), s.cfg.MuteRamp.Seconds())
	return nil
}

// SetTrackSolo sets the solo flag on one track and re-applies gain to the
// listed tracks; nil means every registered track. While any track is
// soloed, the rest fall silent.
func (s *Scheduler) SetTrackSolo(id string, solo bool, trackIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	track, ok := s.tracks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	track.Solo = solo

	if trackIDs == nil {
		for other := range s.tracks {
			trackIDs = append(trackIDs, other)
		}
	}

	now := s.graph.CurrentTime()
	for _, other := range trackIDs {
		t, ok := s.tracks[other]
		if !ok {
			log.Printf("Solo: skipping unknown track %s", other)
			continue
		}
		t.Bus.Gain().RampTo(now, s.effectiveGain(t), s.cfg.MuteRamp.Seconds())
	}
	return nil
}

// SetTrackPan sets a track's stereo position in [-1, 1]
func (s *Scheduler) SetTrackPan(id string, pan float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	track, ok := s.tracks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	track.Pan = clamp(pan, -1, 1)

	track.Bus.Pan().RampTo(s.graph.CurrentTime(), track.Pan, s.cfg.PanRamp.Seconds())
	return nil
}

// effectiveGain is the bus gain a track should sit at; caller holds mu
func (s *Scheduler) effectiveGain(track *TrackState) float64 {
	if track.Mute {
		return 0
	}
	if !track.Solo && s.anySolo() {
		return 0
	}
	return track.Volume
}

func (s *Scheduler) anySolo() bool {
	for _, t := range s.tracks {
		if t.Solo {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
