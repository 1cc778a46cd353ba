// Package timelapse implements an image recorder that runs the still capture
// tool in timelapse mode and picks up the frames it writes.
package timelapse

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	raspberrykit "github.com/raspberrykit/camera-sdk-go"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
)

// Event is a single frame (or error) coming from a Recorder.
type Event struct {
	// If set, an error occurred.
	Err error

	// Frame read from the capture tool. If Err is set, Image is not valid.
	Image image.Image
}

// RecorderOpts has options for a new timelapse recorder.
type RecorderOpts struct {
	Verbose  bool
	Command  string        // Capture tool, eg "rpicam-still". Default raspistill.
	Interval time.Duration // How often to record a frame. Default 1s.
	Duration time.Duration // How long to keep recording. Default 24h.
	Quality  int           // JPEG quality in percent. Default 75.

	// Width and Height, when both set, resize each frame to exactly that
	// size, cropping to keep the aspect ratio. 0 keeps the native size.
	Width  int
	Height int
}

// recorderOptsDefault has default option values for a Recorder.
var recorderOptsDefault = RecorderOpts{
	Command:  "raspistill",
	Interval: time.Second,
	Duration: 24 * time.Hour,
	Quality:  75,
}

// Recorder records frames by running the still capture tool in timelapse
// mode, writing JPEGs to a temporary directory. These files are read,
// decoded and sent over the channel returned by Events.
type Recorder struct {
	opts    RecorderOpts
	events  chan Event
	tempDir string
	cancel  context.CancelFunc
	watcher *fsnotify.Watcher
}

// Events returns a channel on which Events can be received.
func (r *Recorder) Events() chan Event {
	return r.events
}

func (o RecorderOpts) withDefaults() RecorderOpts {
	if o.Command == "" {
		o.Command = recorderOptsDefault.Command
	}
	if o.Interval == 0 {
		o.Interval = recorderOptsDefault.Interval
	}
	if o.Duration == 0 {
		o.Duration = recorderOptsDefault.Duration
	}
	if o.Quality == 0 {
		o.Quality = recorderOptsDefault.Quality
	}
	return o
}

// args returns the timelapse arguments for the capture tool, with frames
// written into dir. Pure; no I/O.
func (o RecorderOpts) args(dir string) []string {
	return []string{
		"--output", dir + "/frame%05d.jpg",
		"--nopreview",
		"--quality", strconv.Itoa(o.Quality),
		"--timelapse", strconv.Itoa(int(o.Interval / time.Millisecond)),
		"--timeout", strconv.Itoa(int(o.Duration / time.Millisecond)),
	}
}

// NewRecorder creates a new recorder and starts the capture tool.
//
// Callers must call Close to stop the tool and clean up.
func NewRecorder(opts RecorderOpts) (recorder *Recorder, rerr error) {
	r := &Recorder{}
	r.opts = opts.withDefaults()
	if r.opts.Interval < 0 || r.opts.Duration < 0 {
		return nil, fmt.Errorf("interval and duration must not be negative")
	}

	// Ensure cleanup in case of failure.
	defer func() {
		if rerr != nil {
			r.Close()
		}
	}()

	tempDir, err := raspberrykit.TempDir()
	if err != nil {
		return nil, fmt.Errorf("making temp dir: %v", err)
	}
	r.tempDir = tempDir
	if r.opts.Verbose {
		log.Printf("timelapse recorder, writing frames to tempdir %s", r.tempDir)
	}

	args := r.opts.args(r.tempDir)
	if r.opts.Verbose {
		log.Printf("starting %s %s", r.opts.Command, strings.Join(args, " "))
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	cmd := exec.CommandContext(ctx, r.opts.Command, args...)
	cmd.Dir = r.tempDir
	if r.opts.Verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %v", r.opts.Command, err)
	}
	go cmd.Wait()

	r.events = make(chan Event)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new file change watcher: %v", err)
	}
	r.watcher = watcher

	logf := func(format string, args ...interface{}) {
		if r.opts.Verbose {
			log.Printf(format, args...)
		}
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op == fsnotify.Remove || !strings.HasSuffix(ev.Name, ".jpg") {
					continue
				}
				f, err := os.Open(ev.Name)
				if err != nil {
					logf("open written file %q: %v", ev.Name, err)
					continue
				}
				img, err := jpeg.Decode(f)
				f.Close()
				if err != nil {
					logf("decoding jpeg %q: %v (may be partially written)", ev.Name, err)
					continue
				}
				if err := os.Remove(ev.Name); err != nil && r.opts.Verbose {
					log.Printf("removing frame %s: %v", ev.Name, err)
				}
				if r.opts.Width > 0 && r.opts.Height > 0 {
					img = imaging.Fill(img, r.opts.Width, r.opts.Height, imaging.Center, imaging.Lanczos)
				}
				select {
				case r.events <- Event{Image: img}:
				default:
					logf("dropping frame, consumer still busy")
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.events <- Event{Err: fmt.Errorf("watching for changes: %v", err)}
			}
		}
	}()

	if err := watcher.Add(r.tempDir); err != nil {
		return nil, fmt.Errorf("registering file change watcher for temp dir: %v", err)
	}

	return r, nil
}

// Close shuts down the recorder, stopping the capture tool and removing the
// temporary directory.
func (r *Recorder) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.watcher != nil {
		r.watcher.Close()
	}
	if r.tempDir != "" {
		os.RemoveAll(r.tempDir)
	}
	return nil
}
