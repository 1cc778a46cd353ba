// Command picam-timelapse records frames at a fixed interval and writes them
// as numbered PNG files.
//
// Examples:
//
//	# One frame per second into the current directory, until ctrl-c.
//	picam-timelapse
//
//	# A frame every 10s for an hour, resized to 640x480, into ./frames.
//	picam-timelapse -interval 10s -duration 1h -width 640 -height 480 -dir frames
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/raspberrykit/camera-sdk-go/timelapse"
)

var (
	command  string
	interval time.Duration
	duration time.Duration
	width    int
	height   int
	dir      string
	verbose  bool
)

func init() {
	flag.StringVar(&command, "command", "", "capture tool to use, default raspistill")
	flag.DurationVar(&interval, "interval", time.Second, "how often to record a frame")
	flag.DurationVar(&duration, "duration", 24*time.Hour, "how long to keep recording")
	flag.IntVar(&width, "width", 0, "resize frames to this width, 0 keeps native size")
	flag.IntVar(&height, "height", 0, "resize frames to this height, 0 keeps native size")
	flag.StringVar(&dir, "dir", ".", "directory to write frames to")
	flag.BoolVar(&verbose, "verbose", false, "print verbose output")
}

func usage() {
	log.Println("usage: picam-timelapse [flags]")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	if len(flag.Args()) != 0 {
		usage()
	}
	os.Exit(main0())
}

func main0() int {
	recorder, err := timelapse.NewRecorder(timelapse.RecorderOpts{
		Verbose:  verbose,
		Command:  command,
		Interval: interval,
		Duration: duration,
		Width:    width,
		Height:   height,
	})
	if err != nil {
		log.Printf("new timelapse recorder: %v", err)
		return 1
	}
	defer recorder.Close()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	seq := 0
	for {
		select {
		case <-signals:
			return 0
		case ev := <-recorder.Events():
			if ev.Err != nil {
				log.Printf("%s", ev.Err)
				continue
			}
			path := filepath.Join(dir, fmt.Sprintf("frame-%05d.png", seq))
			f, err := os.Create(path)
			if err != nil {
				log.Printf("creating %s: %v", path, err)
				continue
			}
			if err := png.Encode(f, ev.Image); err != nil {
				log.Printf("encoding png: %v", err)
			}
			if err := f.Close(); err != nil {
				log.Printf("closing %s: %v", path, err)
			}
			if verbose {
				log.Printf("wrote %s", path)
			}
			seq++
		}
	}
}
