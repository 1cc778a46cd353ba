// Command picam-still takes a single picture with the Raspberry Pi camera
// and writes the JPEG to a file or standard output.
//
// Examples:
//
//	# List video devices and quit.
//	picam-still -listdevices
//
//	# Take a picture with default settings, write it to snap.jpg.
//	picam-still snap.jpg
//
//	# 1280x720 at quality 85, 2 second settle time, to stdout.
//	picam-still -width 1280 -height 720 -quality 85 -timeout 2s -
//
//	# Use a profile from a config file, with the libcamera tool.
//	picam-still -config capture.yaml -profile snapshot -command rpicam-still snap.jpg
package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"time"

	"github.com/raspberrykit/camera-sdk-go/camera"
	"github.com/raspberrykit/camera-sdk-go/config"
)

var (
	listDevices bool
	command     string
	width       int
	height      int
	quality     int
	timeout     time.Duration
	configPath  string
	profile     string
	verbose     bool
)

func init() {
	flag.BoolVar(&listDevices, "listdevices", false, "if set, lists devices and exits")
	flag.StringVar(&command, "command", "", "capture tool to use, default raspistill")
	flag.IntVar(&width, "width", 0, "image width in pixels")
	flag.IntVar(&height, "height", 0, "image height in pixels")
	flag.IntVar(&quality, "quality", 0, "jpeg quality in percent")
	flag.DurationVar(&timeout, "timeout", time.Second, "time the camera settles before capturing")
	flag.StringVar(&configPath, "config", "", "if set, load capture profiles from this yaml file")
	flag.StringVar(&profile, "profile", "", "profile name from the config file to use as base settings")
	flag.BoolVar(&verbose, "verbose", false, "print verbose output")
}

func usage() {
	log.Println("usage: picam-still [flags] output")
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
	if listDevices {
		devs, err := camera.ListDevices()
		if err != nil {
			log.Fatalf("listing devices: %v", err)
		}
		for _, dev := range devs {
			fmt.Printf("%s: %s\n", dev.ID, dev.Name)
		}
		return 0
	}

	if len(args) != 1 {
		usage()
	}

	var settings camera.StillSettings
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Printf("loading config: %v", err)
			return 1
		}
		settings, err = cfg.Still(profile)
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
	if quality != 0 {
		settings.Quality = quality
	}
	if settings.Timeout == 0 {
		settings.Timeout = timeout
	}

	c := camera.NewController(&camera.ControllerOpts{Verbose: verbose})
	buf, err := c.CaptureStill(context.Background(), settings)
	if err != nil {
		log.Printf("capturing still: %v", err)
		return 1
	}
	if len(buf) == 0 {
		log.Printf("capture tool produced no image")
		return 1
	}

	if args[0] == "-" {
		if _, err := os.Stdout.Write(buf); err != nil {
			log.Printf("writing image: %v", err)
			return 1
		}
		return 0
	}
	if err := ioutil.WriteFile(args[0], buf, 0644); err != nil {
		log.Printf("writing image: %v", err)
		return 1
	}
	if verbose {
		log.Printf("wrote %d bytes to %s", len(buf), args[0])
	}
	return 0
}
