package camera

import (
	"fmt"
	"strconv"
	"time"
)

// Default capture commands. The raspistill/raspivid tools ship with the
// legacy camera stack; on Bullseye and later the libcamera/rpicam apps take
// the same flags used here. Override with the Command field.
const (
	defaultStillCommand = "raspistill"
	defaultVideoCommand = "raspivid"
)

// StillSettings describes a single still capture. The zero value of most
// fields selects a sensible default.
type StillSettings struct {
	// Command overrides the capture tool, eg "rpicam-still" or
	// "libcamera-still". If empty, raspistill is used.
	Command string

	Width   int // Default 640.
	Height  int // Default 480.
	Quality int // JPEG quality in percent. Default 90.

	// Timeout is how long the tool runs before taking the picture,
	// which doubles as exposure/AWB settle time. Must be positive.
	Timeout time.Duration

	Rotation int  // Degrees, 0-359.
	HFlip    bool // Flip horizontally.
	VFlip    bool // Flip vertically.

	// Preview shows the on-screen preview window while capturing. Off by
	// default, captures run with --nopreview.
	Preview bool

	Exposure string // Exposure mode, eg "auto", "night", "sports".
	AWB      string // Automatic white balance mode, eg "auto", "sun".
}

// stillSettingsDefault has default values for StillSettings.
var stillSettingsDefault = StillSettings{
	Command: defaultStillCommand,
	Width:   640,
	Height:  480,
	Quality: 90,
}

func (s StillSettings) withDefaults() StillSettings {
	if s.Command == "" {
		s.Command = stillSettingsDefault.Command
	}
	if s.Width == 0 {
		s.Width = stillSettingsDefault.Width
	}
	if s.Height == 0 {
		s.Height = stillSettingsDefault.Height
	}
	if s.Quality == 0 {
		s.Quality = stillSettingsDefault.Quality
	}
	return s
}

func (s StillSettings) validate() error {
	if s.Timeout <= 0 {
		return fmt.Errorf("%w: still timeout must be positive, got %v", ErrInvalidSettings, s.Timeout)
	}
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidSettings, s.Width, s.Height)
	}
	if s.Quality < 0 || s.Quality > 100 {
		return fmt.Errorf("%w: quality %d%% out of range", ErrInvalidSettings, s.Quality)
	}
	if s.Rotation < 0 || s.Rotation > 359 {
		return fmt.Errorf("%w: rotation %d out of range", ErrInvalidSettings, s.Rotation)
	}
	return nil
}

// command returns the capture command and its arguments. Pure; no I/O.
func (s StillSettings) command() (string, []string) {
	args := []string{
		"--output", "-",
		"--width", strconv.Itoa(s.Width),
		"--height", strconv.Itoa(s.Height),
		"--quality", strconv.Itoa(s.Quality),
		"--timeout", strconv.Itoa(int(s.Timeout / time.Millisecond)),
	}
	if !s.Preview {
		args = append(args, "--nopreview")
	}
	if s.Rotation != 0 {
		args = append(args, "--rotation", strconv.Itoa(s.Rotation))
	}
	if s.HFlip {
		args = append(args, "--hflip")
	}
	if s.VFlip {
		args = append(args, "--vflip")
	}
	if s.Exposure != "" {
		args = append(args, "--exposure", s.Exposure)
	}
	if s.AWB != "" {
		args = append(args, "--awb", s.AWB)
	}
	return s.Command, args
}

// VideoSettings describes a continuous video capture.
type VideoSettings struct {
	// Command overrides the capture tool, eg "rpicam-vid" or
	// "libcamera-vid". If empty, raspivid is used.
	Command string

	Width     int // Default 1920.
	Height    int // Default 1080.
	Framerate int // Frames per second. Default 25.
	Bitrate   int // Bits per second. 0 leaves it to the tool.

	// Timeout bounds the recording. 0 means record until stopped.
	// Must not be negative.
	Timeout time.Duration

	Rotation int
	HFlip    bool
	VFlip    bool
	Preview  bool

	Profile string // H.264 profile, eg "baseline", "main", "high".
	Inline  bool   // Insert inline headers, needed for mid-stream joins.

	// Output is where the tool writes the video. Default "-", standard
	// output, which is how the stream reaches the chunk callback.
	Output string
}

// videoSettingsDefault has default values for VideoSettings.
var videoSettingsDefault = VideoSettings{
	Command:   defaultVideoCommand,
	Width:     1920,
	Height:    1080,
	Framerate: 25,
	Output:    "-",
}

func (s VideoSettings) withDefaults() VideoSettings {
	if s.Command == "" {
		s.Command = videoSettingsDefault.Command
	}
	if s.Width == 0 {
		s.Width = videoSettingsDefault.Width
	}
	if s.Height == 0 {
		s.Height = videoSettingsDefault.Height
	}
	if s.Framerate == 0 {
		s.Framerate = videoSettingsDefault.Framerate
	}
	if s.Output == "" {
		s.Output = videoSettingsDefault.Output
	}
	return s
}

func (s VideoSettings) validate() error {
	if s.Timeout < 0 {
		return fmt.Errorf("%w: video timeout must not be negative, got %v", ErrInvalidSettings, s.Timeout)
	}
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidSettings, s.Width, s.Height)
	}
	if s.Framerate < 0 {
		return fmt.Errorf("%w: framerate %d", ErrInvalidSettings, s.Framerate)
	}
	if s.Rotation < 0 || s.Rotation > 359 {
		return fmt.Errorf("%w: rotation %d out of range", ErrInvalidSettings, s.Rotation)
	}
	return nil
}

// command returns the capture command and its arguments. Pure; no I/O.
func (s VideoSettings) command() (string, []string) {
	args := []string{
		"--output", s.Output,
		"--width", strconv.Itoa(s.Width),
		"--height", strconv.Itoa(s.Height),
		"--framerate", strconv.Itoa(s.Framerate),
		"--timeout", strconv.Itoa(int(s.Timeout / time.Millisecond)),
	}
	if !s.Preview {
		args = append(args, "--nopreview")
	}
	if s.Bitrate != 0 {
		args = append(args, "--bitrate", strconv.Itoa(s.Bitrate))
	}
	if s.Profile != "" {
		args = append(args, "--profile", s.Profile)
	}
	if s.Inline {
		args = append(args, "--inline")
	}
	if s.Rotation != 0 {
		args = append(args, "--rotation", strconv.Itoa(s.Rotation))
	}
	if s.HFlip {
		args = append(args, "--hflip")
	}
	if s.VFlip {
		args = append(args, "--vflip")
	}
	return s.Command, args
}
