package camera

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	raspberrykit "github.com/raspberrykit/camera-sdk-go"
)

// fakeCall records one RunStream invocation on the fake runner.
type fakeCall struct {
	ctx  context.Context
	name string
	args []string
}

// fakeRunner scripts RunStream: it emits chunks, then either returns the
// configured exit code or blocks until the context is cancelled.
type fakeRunner struct {
	chunks   [][]byte
	exitCode int
	err      error
	block    bool

	// If not nil, receives one signal per call once all chunks have been
	// emitted.
	emitted chan struct{}

	mu    sync.Mutex
	calls []fakeCall
}

var _ Runner = (*fakeRunner)(nil)

func (f *fakeRunner) RunStream(ctx context.Context, name string, args []string, onChunk raspberrykit.ChunkFunc) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{ctx, name, args})
	f.mu.Unlock()

	if f.err != nil {
		return 0, f.err
	}
	for _, chunk := range f.chunks {
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	if f.emitted != nil {
		f.emitted <- struct{}{}
	}
	if f.block {
		<-ctx.Done()
		return -1, nil
	}
	return f.exitCode, nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRunner) call(i int) fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func waitIdle(t *testing.T, c *Controller) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for c.IsBusy() {
		if time.Now().After(deadline) {
			t.Fatalf("controller still busy")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCaptureStill(t *testing.T) {
	fr := &fakeRunner{chunks: [][]byte{{0x01}, {0x02, 0x03}}}
	c := NewController(&ControllerOpts{Runner: fr})

	settings := StillSettings{Width: 640, Height: 480, Quality: 90, Timeout: 300 * time.Millisecond}
	buf, err := c.CaptureStill(context.Background(), settings)
	if err != nil {
		t.Fatalf("capturing still: %v", err)
	}
	if !bytes.Equal(buf, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("captured %v, expected [1 2 3]", buf)
	}
	if n := fr.callCount(); n != 1 {
		t.Fatalf("runner called %d times, expected 1", n)
	}
	if c.IsBusy() {
		t.Fatalf("controller busy after capture")
	}
}

func TestCaptureStillProcessFailure(t *testing.T) {
	fr := &fakeRunner{chunks: [][]byte{{0x01, 0x02, 0x03}}, exitCode: 1}
	c := NewController(&ControllerOpts{Runner: fr})

	settings := StillSettings{Width: 640, Height: 480, Quality: 90, Timeout: 300 * time.Millisecond}
	buf, err := c.CaptureStill(context.Background(), settings)
	if err != nil {
		t.Fatalf("capturing still: %v", err)
	}
	if len(buf) != 0 {
		t.Fatalf("captured %v on non-zero exit, expected empty result", buf)
	}
	if c.IsBusy() {
		t.Fatalf("controller busy after failed capture")
	}
}

func TestCaptureStillInvalidTimeout(t *testing.T) {
	fr := &fakeRunner{}
	c := NewController(&ControllerOpts{Runner: fr})

	_, err := c.CaptureStill(context.Background(), StillSettings{})
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("got %v, expected ErrInvalidSettings for zero timeout", err)
	}
	if n := fr.callCount(); n != 0 {
		t.Fatalf("runner called %d times for invalid settings, expected 0", n)
	}
	if c.IsBusy() {
		t.Fatalf("controller busy after rejected capture")
	}
}

func TestCaptureStillLaunchFailure(t *testing.T) {
	launchErr := errors.New("starting raspistill: executable not found")
	fr := &fakeRunner{err: launchErr}
	c := NewController(&ControllerOpts{Runner: fr})

	_, err := c.CaptureStill(context.Background(), StillSettings{Timeout: time.Second})
	if !errors.Is(err, launchErr) {
		t.Fatalf("got %v, expected launch error to propagate", err)
	}
	if c.IsBusy() {
		t.Fatalf("controller busy after launch failure")
	}
}

func TestCaptureStillCancel(t *testing.T) {
	fr := &fakeRunner{block: true, emitted: make(chan struct{}, 1)}
	c := NewController(&ControllerOpts{Runner: fr})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.CaptureStill(ctx, StillSettings{Timeout: time.Second})
		errc <- err
	}()

	<-fr.emitted
	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, expected context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancelled capture did not return")
	}
	if c.IsBusy() {
		t.Fatalf("controller busy after cancelled capture")
	}
}

func TestVideoChunkDelivery(t *testing.T) {
	want := []byte("frame0frame1frame2")
	fr := &fakeRunner{chunks: [][]byte{[]byte("frame0"), []byte("frame1"), []byte("frame2")}}
	c := NewController(&ControllerOpts{Runner: fr})

	var got []byte
	doneCh := make(chan bool, 1)
	err := c.StartVideo(VideoSettings{},
		func(chunk []byte) { got = append(got, chunk...) },
		func() { doneCh <- c.IsBusy() },
	)
	if err != nil {
		t.Fatalf("starting video: %v", err)
	}

	select {
	case busyInDone := <-doneCh:
		// The device is only released after the finish callback.
		if !busyInDone {
			t.Fatalf("device already released when finish callback ran")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("finish callback never ran")
	}
	waitIdle(t, c)
	if !bytes.Equal(got, want) {
		t.Fatalf("delivered %q, expected %q", got, want)
	}

	// Stopping a stream that already finished naturally is a no-op.
	c.StopVideo()
	if c.IsBusy() {
		t.Fatalf("controller busy after StopVideo on finished stream")
	}
}

func TestStopVideo(t *testing.T) {
	fr := &fakeRunner{
		chunks:  [][]byte{[]byte("a"), []byte("b"), []byte("c")},
		block:   true,
		emitted: make(chan struct{}, 1),
	}
	c := NewController(&ControllerOpts{Runner: fr})

	var chunks int
	doneCalled := false
	if err := c.StartVideo(VideoSettings{}, func([]byte) { chunks++ }, func() { doneCalled = true }); err != nil {
		t.Fatalf("starting video: %v", err)
	}
	<-fr.emitted

	c.StopVideo()
	if c.IsBusy() {
		t.Fatalf("controller busy after StopVideo returned")
	}
	if err := fr.call(0).ctx.Err(); err == nil {
		t.Fatalf("capture process was not cancelled by StopVideo")
	}
	if chunks != 3 {
		t.Fatalf("got %d chunks, expected 3", chunks)
	}
	if doneCalled {
		t.Fatalf("finish callback ran for an explicit stop")
	}

	// Second stop observes idle and returns immediately.
	c.StopVideo()
	if c.IsBusy() {
		t.Fatalf("controller busy after second StopVideo")
	}
}

func TestStopVideoIdle(t *testing.T) {
	c := NewController(nil)
	c.StopVideo()
	if c.IsBusy() {
		t.Fatalf("controller busy after StopVideo on idle controller")
	}
}

func TestVideoTimeoutValidation(t *testing.T) {
	fr := &fakeRunner{}
	c := NewController(&ControllerOpts{Runner: fr})

	err := c.StartVideo(VideoSettings{Timeout: -time.Second}, nil, nil)
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("got %v, expected ErrInvalidSettings for negative timeout", err)
	}
	if n := fr.callCount(); n != 0 {
		t.Fatalf("runner called %d times for invalid settings, expected 0", n)
	}
}

func TestBusyExclusion(t *testing.T) {
	fr := &fakeRunner{block: true}
	c := NewController(&ControllerOpts{Runner: fr})

	if err := c.StartVideo(VideoSettings{}, nil, nil); err != nil {
		t.Fatalf("starting video: %v", err)
	}
	if !c.IsBusy() {
		t.Fatalf("controller idle while video running")
	}

	if _, err := c.CaptureStill(context.Background(), StillSettings{Timeout: time.Second}); !errors.Is(err, ErrBusy) {
		t.Fatalf("got %v, expected ErrBusy for capture during video", err)
	}
	if err := c.StartVideo(VideoSettings{}, nil, nil); !errors.Is(err, ErrBusy) {
		t.Fatalf("got %v, expected ErrBusy for second video", err)
	}

	c.StopVideo()

	// The device is free again.
	fr2 := &fakeRunner{chunks: [][]byte{{0xff}}}
	c.runner = fr2
	buf, err := c.CaptureStill(context.Background(), StillSettings{Timeout: time.Second})
	if err != nil {
		t.Fatalf("capturing after stop: %v", err)
	}
	if !bytes.Equal(buf, []byte{0xff}) {
		t.Fatalf("captured %v after stop, expected [255]", buf)
	}
}

func TestConcurrentStartRace(t *testing.T) {
	fr := &fakeRunner{block: true}
	c := NewController(&ControllerOpts{Runner: fr})

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.StartVideo(VideoSettings{}, nil, nil)
		}()
	}
	wg.Wait()
	close(errs)

	started, rejected := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			started++
		case errors.Is(err, ErrBusy):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if started != 1 || rejected != n-1 {
		t.Fatalf("%d started and %d rejected, expected 1 and %d", started, rejected, n-1)
	}
	if got := fr.callCount(); got != 1 {
		t.Fatalf("runner called %d times, expected 1", got)
	}

	c.StopVideo()
	if c.IsBusy() {
		t.Fatalf("controller busy after StopVideo")
	}
}

func TestFreshCancelPerSession(t *testing.T) {
	fr := &fakeRunner{block: true, emitted: make(chan struct{}, 2)}
	c := NewController(&ControllerOpts{Runner: fr})

	if err := c.StartVideo(VideoSettings{}, nil, nil); err != nil {
		t.Fatalf("starting first video: %v", err)
	}
	<-fr.emitted
	c.StopVideo()

	if err := c.StartVideo(VideoSettings{}, nil, nil); err != nil {
		t.Fatalf("starting second video: %v", err)
	}
	<-fr.emitted

	// The first session's cancellation must not leak into the second.
	if err := fr.call(0).ctx.Err(); err == nil {
		t.Fatalf("first session context not cancelled")
	}
	if err := fr.call(1).ctx.Err(); err != nil {
		t.Fatalf("second session context already cancelled: %v", err)
	}
	if !c.IsBusy() {
		t.Fatalf("controller idle while second video running")
	}

	c.StopVideo()
}

func TestStreamErrorSink(t *testing.T) {
	launchErr := errors.New("starting raspivid: executable not found")
	fr := &fakeRunner{err: launchErr}

	errc := make(chan error, 1)
	c := NewController(&ControllerOpts{Runner: fr, OnError: func(err error) { errc <- err }})

	if err := c.StartVideo(VideoSettings{}, nil, nil); err != nil {
		t.Fatalf("starting video: %v", err)
	}
	select {
	case err := <-errc:
		if !errors.Is(err, launchErr) {
			t.Fatalf("sink got %v, expected launch error", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("error sink never called")
	}
	waitIdle(t, c)
}
