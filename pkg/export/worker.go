// ABOUTME: Mix worker goroutine
// ABOUTME: Owns the offline project state and answers one reply per request
package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

var (
	// ErrWorkerClosed is returned when talking to a closed worker
	ErrWorkerClosed = errors.New("worker closed")

	// ErrUnknownRequest is reported for request types the worker does not handle
	ErrUnknownRequest = errors.New("unknown request")
)

// Worker mixes tracks on its own goroutine. Requests are handled in the
// order they are posted and each produces exactly one Reply.
type Worker struct {
	requests chan Request
	replies  chan Reply
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewWorker starts a worker goroutine
func NewWorker() *Worker {
	w := &Worker{
		requests: make(chan Request, 16),
		replies:  make(chan Reply, 16),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Worker) run() {
	defer close(w.done)

	p := newMixProject()
	for {
		select {
		case <-w.quit:
			return
		case req := <-w.requests:
			reply := p.handle(req)
			select {
			case w.replies <- reply:
			case <-w.quit:
				return
			}
		}
	}
}

// Post queues a request without waiting for its reply
func (w *Worker) Post(ctx context.Context, req Request) error {
	select {
	case <-w.done:
		return ErrWorkerClosed
	default:
	}

	select {
	case w.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return ErrWorkerClosed
	}
}

// Replies delivers the worker's replies in request order
func (w *Worker) Replies() <-chan Reply {
	return w.replies
}

// Call posts req and waits for its reply. A WorkerError reply is also
// returned as the error. Call must not be mixed with concurrent Posts.
func (w *Worker) Call(ctx context.Context, req Request) (Reply, error) {
	if err := w.Post(ctx, req); err != nil {
		return nil, err
	}

	select {
	case reply := <-w.replies:
		if werr, ok := reply.(WorkerError); ok {
			return reply, werr
		}
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.done:
		return nil, ErrWorkerClosed
	}
}

// Close stops the worker and waits for it to exit. A request being
// handled runs to completion first.
func (w *Worker) Close() {
	w.once.Do(func() {
		close(w.quit)
	})
	<-w.done
}

// handle applies one request to the project
func (p *mixProject) handle(req Request) Reply {
	switch r := req.(type) {
	case Init:
		p.init(r)
		return Inited{}

	case LoadClip:
		if err := p.loadClip(r); err != nil {
			return WorkerError{Request: "loadClip", Err: err}
		}
		return ClipLoaded{TrackIndex: r.TrackIndex, ClipID: r.ClipID}

	case UpdateTrack:
		p.updateTrack(r)
		return TrackUpdated{TrackIndex: r.TrackIndex}

	case RenderMix:
		mix, frames := p.render(r.StartSample, r.EndSample)
		return RenderDone{
			Buffer:     NewOwnedBuffer(mix),
			SampleRate: p.sampleRate,
			Length:     frames,
		}

	case Clear:
		p.tracks = nil
		return Cleared{}
	}

	log.Printf("Mix worker: unhandled request %T", req)
	return WorkerError{Request: fmt.Sprintf("%T", req), Err: ErrUnknownRequest}
}
