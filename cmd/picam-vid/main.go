// Command picam-vid records H.264 video with the Raspberry Pi camera and
// writes the stream to a file or standard output until interrupted.
//
// Examples:
//
//	# Record until ctrl-c, write the stream to out.h264.
//	picam-vid out.h264
//
//	# Record 10 seconds of 720p30 to stdout.
//	picam-vid -width 1280 -height 720 -framerate 30 -duration 10s -
//
//	# Use a profile from a config file, with the libcamera tool.
//	picam-vid -config capture.yaml -profile stream -command rpicam-vid out.h264
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raspberrykit/camera-sdk-go/camera"
	"github.com/raspberrykit/camera-sdk-go/config"
)

var (
	command    string
	width      int
	height     int
	framerate  int
	bitrate    int
	duration   time.Duration
	configPath string
	profile    string
	verbose    bool
)

func init() {
	flag.StringVar(&command, "command", "", "capture tool to use, default raspivid")
	flag.IntVar(&width, "width", 0, "video width in pixels")
	flag.IntVar(&height, "height", 0, "video height in pixels")
	flag.IntVar(&framerate, "framerate", 0, "frames per second")
	flag.IntVar(&bitrate, "bitrate", 0, "bitrate in bits per second")
	flag.DurationVar(&duration, "duration", 0, "how long to record, 0 records until interrupted")
	flag.StringVar(&configPath, "config", "", "if set, load capture profiles from this yaml file")
	flag.StringVar(&profile, "profile", "", "profile name from the config file to use as base settings")
	flag.BoolVar(&verbose, "verbose", false, "print verbose output")
}

func usage() {
	log.Println("usage: picam-vid [flags] output")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	os.Exit(main0(args))
}

func main0(args []string) int {
	if len(args) != 1 {
		usage()
	}

	out := os.Stdout
	if args[0] != "-" {
		f, err := os.Create(args[0])
		if err != nil {
			log.Printf("creating output file: %v", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	var settings camera.VideoSettings
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Printf("loading config: %v", err)
			return 1
		}
		settings, err = cfg.Video(profile)
		if err != nil {
			log.Printf("config: %v", err)
			return 1
		}
	}
	if command != "" {
		settings.Command = command
	}
	if width != 0 {
		settings.Width = width
	}
	if height != 0 {
		settings.Height = height
	}
	if framerate != 0 {
		settings.Framerate = framerate
	}
	if bitrate != 0 {
		settings.Bitrate = bitrate
	}
	if duration != 0 {
		settings.Timeout = duration
	}

	c := camera.NewController(&camera.ControllerOpts{
		Verbose: verbose,
		OnError: func(err error) { log.Printf("video capture: %v", err) },
	})

	var written int64
	finished := make(chan struct{})
	err := c.StartVideo(settings,
		func(chunk []byte) {
			n, err := out.Write(chunk)
			written += int64(n)
			if err != nil {
				log.Printf("writing stream: %v", err)
			}
		},
		func() { close(finished) },
	)
	if err != nil {
		log.Printf("starting video: %v", err)
		return 1
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	select {
	case <-signals:
		c.StopVideo()
	case <-finished:
	}

	if verbose {
		log.Printf("wrote %d bytes", written)
	}
	return 0
}
