// Package camera controls the Raspberry Pi camera module by running the
// external capture tools (raspistill, raspivid and their libcamera
// successors) and consuming their output.
//
// There is one physical camera, so a single Controller owns the device for
// its lifetime and serializes every capture: at most one still capture or
// video stream runs at a time, and concurrent callers that lose the race are
// told the device is busy rather than queued.
package camera

import (
	"bytes"
	"context"
	"log"
	"sync"
	"sync/atomic"

	raspberrykit "github.com/raspberrykit/camera-sdk-go"
)

// Session states for the busy flag.
const (
	stateIdle int32 = iota
	stateBusy
)

// Runner starts an external capture process and streams its standard output.
// It blocks until the process exits and returns its exit code; cancelling ctx
// must kill the process. Non-zero exits are reported through the code, not
// the error.
type Runner interface {
	RunStream(ctx context.Context, name string, args []string, onChunk raspberrykit.ChunkFunc) (int, error)
}

// execRunner runs capture processes with raspberrykit.RunStream.
type execRunner struct {
	verbose bool
}

// Ensure that execRunner implements interface Runner.
var _ Runner = execRunner{}

func (r execRunner) RunStream(ctx context.Context, name string, args []string, onChunk raspberrykit.ChunkFunc) (int, error) {
	return raspberrykit.RunStream(ctx, name, args, onChunk, &raspberrykit.RunStreamOpts{Verbose: r.verbose})
}

// ControllerOpts has options for a new Controller.
type ControllerOpts struct {
	Verbose bool

	// Runner overrides how capture processes are executed. If nil, the
	// commands are executed directly. Mainly useful for testing.
	Runner Runner

	// OnError, if set, receives errors from the background video
	// goroutine, which has no synchronous caller to report to. If nil,
	// such errors are only logged when Verbose is set.
	OnError func(error)
}

// Controller owns the physical camera and serializes access to it. Construct
// one per device with NewController and hand it to whatever needs camera
// access; its methods are safe for concurrent use.
type Controller struct {
	opts   ControllerOpts
	runner Runner

	busy int32 // stateIdle or stateBusy, atomic.

	mu     sync.Mutex         // Guards cancel and done.
	cancel context.CancelFunc // Cancels the current video session, nil when none.
	done   chan struct{}      // Closed when the current video session has fully cleaned up.
}

// NewController returns a controller for the camera device.
// Opts can be nil, in which case default values are used.
func NewController(opts *ControllerOpts) *Controller {
	c := &Controller{}
	if opts != nil {
		c.opts = *opts
	}
	c.runner = c.opts.Runner
	if c.runner == nil {
		c.runner = execRunner{verbose: c.opts.Verbose}
	}
	return c
}

// IsBusy reports whether a capture or video stream currently owns the
// device. It has no side effects.
func (c *Controller) IsBusy() bool {
	return atomic.LoadInt32(&c.busy) == stateBusy
}

// CaptureStill takes a single picture and returns the full image bytes.
//
// It fails with ErrBusy when another capture owns the device, and with
// ErrInvalidSettings when the settings are malformed, in both cases before
// starting any process. Cancelling ctx kills the capture process and returns
// ctx's error.
//
// When the capture tool itself exits non-zero, CaptureStill returns an empty
// buffer and a nil error: the capture ran but produced nothing usable.
// Callers must check for an empty result.
func (c *Controller) CaptureStill(ctx context.Context, settings StillSettings) ([]byte, error) {
	settings = settings.withDefaults()
	if err := settings.validate(); err != nil {
		return nil, err
	}

	if !atomic.CompareAndSwapInt32(&c.busy, stateIdle, stateBusy) {
		return nil, ErrBusy
	}
	defer atomic.StoreInt32(&c.busy, stateIdle)

	name, args := settings.command()
	var buf bytes.Buffer
	code, err := c.runner.RunStream(ctx, name, args, func(chunk []byte) {
		buf.Write(chunk)
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if code != 0 {
		if c.opts.Verbose {
			log.Printf("still capture %s exited with code %d", name, code)
		}
		return nil, nil
	}
	return buf.Bytes(), nil
}

// StartVideo starts a continuous video capture in the background and returns
// once it is underway. Chunks of encoded video are passed to onChunk in the
// order the capture tool emits them; the chunk slice is reused, so onChunk
// must copy data it keeps. When the process exits on its own (including a
// settings.Timeout expiry or a crash), onDone is called, then the device is
// released. onDone is not called after an explicit StopVideo.
//
// Both onChunk and onDone may be nil. StartVideo fails with ErrBusy when the
// device is owned, and with ErrInvalidSettings when the settings are
// malformed.
func (c *Controller) StartVideo(settings VideoSettings, onChunk raspberrykit.ChunkFunc, onDone func()) error {
	settings = settings.withDefaults()
	if err := settings.validate(); err != nil {
		return err
	}

	if !atomic.CompareAndSwapInt32(&c.busy, stateIdle, stateBusy) {
		return ErrBusy
	}

	// The previous session fully ended before the busy flag went back to
	// idle, so this context can never be cancelled by a stale StopVideo.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.mu.Lock()
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	name, args := settings.command()
	go func() {
		defer cancel()
		code, err := c.runner.RunStream(ctx, name, args, onChunk)
		if err != nil {
			c.streamError(err)
		} else if code != 0 && ctx.Err() == nil && c.opts.Verbose {
			log.Printf("video capture %s exited with code %d", name, code)
		}

		if ctx.Err() == nil && onDone != nil {
			onDone()
		}

		// Clearing the handle and going idle under one lock means a
		// StopVideo that observes a nil cancel also observes idle.
		c.mu.Lock()
		c.cancel = nil
		c.done = nil
		atomic.StoreInt32(&c.busy, stateIdle)
		c.mu.Unlock()
		close(done)
	}()

	return nil
}

// StopVideo stops the current video capture, killing the capture process,
// and blocks until the background work has fully cleaned up: when StopVideo
// returns, IsBusy reports false. It is a no-op when no video is running, and
// calling it repeatedly is safe.
func (c *Controller) StopVideo() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Controller) streamError(err error) {
	if c.opts.OnError != nil {
		c.opts.OnError(err)
		return
	}
	if c.opts.Verbose {
		log.Printf("video capture: %v", err)
	}
}
