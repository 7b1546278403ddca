// ABOUTME: Render worker message protocol
// ABOUTME: Request and reply types exchanged with the mix worker goroutine
package export

import "fmt"

// Request is a message sent to the worker
type Request interface {
	isRequest()
}

// Reply is a message sent back by the worker, one per Request
type Reply interface {
	isReply()
}

// TrackSettings are the mix controls of one track
type TrackSettings struct {
	Gain  float64
	Pan   float64 // -1 (left) to 1 (right)
	Muted bool
	Solo  bool
}

// DefaultTrackSettings is a unity-gain, centred, audible track
func DefaultTrackSettings() TrackSettings {
	return TrackSettings{Gain: 1}
}

// TrackUpdate changes the non-nil fields of a track's settings
type TrackUpdate struct {
	Gain  *float64
	Pan   *float64
	Muted *bool
	Solo  *bool
}

func (u TrackUpdate) apply(s *TrackSettings) {
	if u.Gain != nil {
		s.Gain = *u.Gain
	}
	if u.Pan != nil {
		s.Pan = *u.Pan
	}
	if u.Muted != nil {
		s.Muted = *u.Muted
	}
	if u.Solo != nil {
		s.Solo = *u.Solo
	}
}

// Init replaces the worker's project
type Init struct {
	SampleRate int // 0 means 48000
	Tracks     []TrackSettings
}

// LoadClip adds interleaved samples to a track, creating the track if needed
type LoadClip struct {
	TrackIndex  int
	ClipID      string
	Buffer      *OwnedBuffer
	Channels    int
	StartSample int64
}

// UpdateTrack changes one track's settings; unknown tracks are ignored
type UpdateTrack struct {
	TrackIndex int
	Update     TrackUpdate
}

// RenderMix mixes [StartSample, EndSample). A nil EndSample renders to the
// end of the last clip.
type RenderMix struct {
	StartSample int64
	EndSample   *int64
}

// Clear drops every track
type Clear struct{}

func (Init) isRequest()        {}
func (LoadClip) isRequest()    {}
func (UpdateTrack) isRequest() {}
func (RenderMix) isRequest()   {}
func (Clear) isRequest()       {}

// Inited acknowledges Init
type Inited struct{}

// ClipLoaded acknowledges LoadClip
type ClipLoaded struct {
	TrackIndex int
	ClipID     string
}

// TrackUpdated acknowledges UpdateTrack
type TrackUpdated struct {
	TrackIndex int
}

// RenderDone carries the interleaved stereo mix
type RenderDone struct {
	Buffer     *OwnedBuffer
	SampleRate int
	Length     int // frames
}

// Cleared acknowledges Clear
type Cleared struct{}

// WorkerError reports a request the worker could not carry out
type WorkerError struct {
	Request string
	Err     error
}

func (e WorkerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Request, e.Err)
}

func (e WorkerError) Unwrap() error {
	return e.Err
}

func (Inited) isReply()       {}
func (ClipLoaded) isReply()   {}
func (TrackUpdated) isReply() {}
func (RenderDone) isReply()   {}
func (Cleared) isReply()      {}
func (WorkerError) isReply()  {}
