package timelapse

import (
	"reflect"
	"testing"
	"time"
)

func TestArgs(t *testing.T) {
	opts := RecorderOpts{
		Interval: 2 * time.Second,
		Duration: time.Minute,
		Quality:  50,
	}.withDefaults()
	exp := []string{
		"--output", "/tmp/x/frame%05d.jpg",
		"--nopreview",
		"--quality", "50",
		"--timelapse", "2000",
		"--timeout", "60000",
	}
	if args := opts.args("/tmp/x"); !reflect.DeepEqual(args, exp) {
		t.Fatalf("args %v, expected %v", args, exp)
	}
}

func TestOptsDefaults(t *testing.T) {
	opts := RecorderOpts{}.withDefaults()
	if opts.Command != "raspistill" {
		t.Fatalf("default command %q, expected raspistill", opts.Command)
	}
	if opts.Interval != time.Second {
		t.Fatalf("default interval %v, expected 1s", opts.Interval)
	}
	if opts.Duration != 24*time.Hour {
		t.Fatalf("default duration %v, expected 24h", opts.Duration)
	}
	if opts.Quality != 75 {
		t.Fatalf("default quality %d, expected 75", opts.Quality)
	}
}
