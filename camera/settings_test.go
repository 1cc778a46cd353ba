package camera

import (
	"reflect"
	"testing"
	"time"
)

func TestStillCommand(t *testing.T) {
	s := StillSettings{
		Width:   1280,
		Height:  720,
		Quality: 75,
		Timeout: 2 * time.Second,
	}.withDefaults()
	name, args := s.command()
	if name != "raspistill" {
		t.Fatalf("command %q, expected raspistill", name)
	}
	exp := []string{
		"--output", "-",
		"--width", "1280",
		"--height", "720",
		"--quality", "75",
		"--timeout", "2000",
		"--nopreview",
	}
	if !reflect.DeepEqual(args, exp) {
		t.Fatalf("args %v, expected %v", args, exp)
	}
}

func TestStillCommandFlags(t *testing.T) {
	s := StillSettings{
		Command:  "rpicam-still",
		Timeout:  500 * time.Millisecond,
		Rotation: 180,
		HFlip:    true,
		VFlip:    true,
		Preview:  true,
		Exposure: "night",
		AWB:      "sun",
	}.withDefaults()
	name, args := s.command()
	if name != "rpicam-still" {
		t.Fatalf("command %q, expected rpicam-still", name)
	}
	exp := []string{
		"--output", "-",
		"--width", "640",
		"--height", "480",
		"--quality", "90",
		"--timeout", "500",
		"--rotation", "180",
		"--hflip",
		"--vflip",
		"--exposure", "night",
		"--awb", "sun",
	}
	if !reflect.DeepEqual(args, exp) {
		t.Fatalf("args %v, expected %v", args, exp)
	}
}

func TestVideoCommand(t *testing.T) {
	s := VideoSettings{
		Width:     1280,
		Height:    720,
		Framerate: 30,
		Bitrate:   1_000_000,
		Profile:   "baseline",
		Inline:    true,
	}.withDefaults()
	name, args := s.command()
	if name != "raspivid" {
		t.Fatalf("command %q, expected raspivid", name)
	}
	exp := []string{
		"--output", "-",
		"--width", "1280",
		"--height", "720",
		"--framerate", "30",
		"--timeout", "0",
		"--nopreview",
		"--bitrate", "1000000",
		"--profile", "baseline",
		"--inline",
	}
	if !reflect.DeepEqual(args, exp) {
		t.Fatalf("args %v, expected %v", args, exp)
	}
}

func TestSettingsValidation(t *testing.T) {
	tests := []struct {
		name string
		err  bool
		s    StillSettings
	}{
		{"zero timeout", true, StillSettings{}},
		{"negative timeout", true, StillSettings{Timeout: -time.Second}},
		{"quality out of range", true, StillSettings{Timeout: time.Second, Quality: 101}},
		{"rotation out of range", true, StillSettings{Timeout: time.Second, Rotation: 720}},
		{"valid", false, StillSettings{Timeout: time.Second}},
	}
	for _, tc := range tests {
		err := tc.s.withDefaults().validate()
		if gotErr := err != nil; gotErr != tc.err {
			t.Fatalf("%s: got error %v, expected error %v", tc.name, err, tc.err)
		}
	}

	if err := (VideoSettings{}).withDefaults().validate(); err != nil {
		t.Fatalf("zero video settings: %v, expected valid (run until stopped)", err)
	}
	if err := (VideoSettings{Timeout: -time.Millisecond}).withDefaults().validate(); err == nil {
		t.Fatalf("negative video timeout accepted")
	}
}
