// Package sockettest provides an in-memory sockets.Socket for tests.
package sockettest

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/irdkwmnsb/screencast-relay/internal/domain"
	"github.com/irdkwmnsb/screencast-relay/internal/sockets"
)

var ErrWriteFailed = errors.New("write failed")

type Frame struct {
	Type int
	Data []byte
}

// Recorder records every frame written to it.
type Recorder struct {
	id sockets.SocketID

	mu         sync.Mutex
	frames     []Frame
	failWrites bool
	beforeSend func()

	closed atomic.Bool
}

func New() *Recorder {
	return &Recorder{id: sockets.NewSocketID()}
}

func (r *Recorder) ID() sockets.SocketID {
	return r.id
}

func (r *Recorder) WriteMessage(messageType int, data []byte) error {
	r.mu.Lock()
	hook := r.beforeSend
	r.mu.Unlock()
	if hook != nil {
		hook()
	}

	if r.closed.Load() {
		return domain.ErrSocketClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return ErrWriteFailed
	}
	r.frames = append(r.frames, Frame{Type: messageType, Data: append([]byte(nil), data...)})
	return nil
}

func (r *Recorder) Close() error {
	r.closed.Store(true)
	return nil
}

func (r *Recorder) IsClosed() bool {
	return r.closed.Load()
}

// FailWrites makes every following write return ErrWriteFailed.
func (r *Recorder) FailWrites() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWrites = true
}

// BeforeSend installs a hook that runs at the start of every write.
func (r *Recorder) BeforeSend(hook func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeSend = hook
}

func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

// Payloads returns the data of every recorded frame as strings.
func (r *Recorder) Payloads() []string {
	frames := r.Frames()
	result := make([]string, 0, len(frames))
	for _, f := range frames {
		result = append(result, string(f.Data))
	}
	return result
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}
