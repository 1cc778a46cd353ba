// Package config loads named capture profiles from a YAML file, so capture
// settings can be kept next to the deployment instead of on command lines.
package config

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/raspberrykit/camera-sdk-go/camera"

	"gopkg.in/yaml.v3"
)

// Profile is one named set of capture settings.
type Profile struct {
	Type      string `yaml:"type"` // "still" or "video".
	Command   string `yaml:"command,omitempty"`
	Width     int    `yaml:"width,omitempty"`
	Height    int    `yaml:"height,omitempty"`
	Quality   int    `yaml:"quality,omitempty"`    // Still only.
	Framerate int    `yaml:"framerate,omitempty"`  // Video only.
	Bitrate   int    `yaml:"bitrate,omitempty"`    // Video only.
	TimeoutMS int    `yaml:"timeout_ms,omitempty"` // Still: settle time. Video: 0 = until stopped.
	Rotation  int    `yaml:"rotation,omitempty"`
	HFlip     bool   `yaml:"hflip,omitempty"`
	VFlip     bool   `yaml:"vflip,omitempty"`
	Exposure  string `yaml:"exposure,omitempty"` // Still only.
	AWB       string `yaml:"awb,omitempty"`      // Still only.
	H264      string `yaml:"h264,omitempty"`     // Video only, the H.264 profile.
	Inline    bool   `yaml:"inline,omitempty"`   // Video only.
}

// Config holds all capture profiles of one file.
type Config struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// Load reads a YAML file with capture profiles.
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if len(cfg.Profiles) == 0 {
		return nil, fmt.Errorf("no profiles defined")
	}
	for name, p := range cfg.Profiles {
		switch p.Type {
		case "still", "video":
		default:
			return nil, fmt.Errorf("profile %q: type must be still or video, got %q", name, p.Type)
		}
	}
	return &cfg, nil
}

// Still returns the named profile as still capture settings.
func (c *Config) Still(name string) (camera.StillSettings, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return camera.StillSettings{}, fmt.Errorf("no profile %q", name)
	}
	if p.Type != "still" {
		return camera.StillSettings{}, fmt.Errorf("profile %q is a %s profile, not still", name, p.Type)
	}
	return camera.StillSettings{
		Command:  p.Command,
		Width:    p.Width,
		Height:   p.Height,
		Quality:  p.Quality,
		Timeout:  time.Duration(p.TimeoutMS) * time.Millisecond,
		Rotation: p.Rotation,
		HFlip:    p.HFlip,
		VFlip:    p.VFlip,
		Exposure: p.Exposure,
		AWB:      p.AWB,
	}, nil
}

// Video returns the named profile as video capture settings.
func (c *Config) Video(name string) (camera.VideoSettings, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return camera.VideoSettings{}, fmt.Errorf("no profile %q", name)
	}
	if p.Type != "video" {
		return camera.VideoSettings{}, fmt.Errorf("profile %q is a %s profile, not video", name, p.Type)
	}
	return camera.VideoSettings{
		Command:   p.Command,
		Width:     p.Width,
		Height:    p.Height,
		Framerate: p.Framerate,
		Bitrate:   p.Bitrate,
		Timeout:   time.Duration(p.TimeoutMS) * time.Millisecond,
		Rotation:  p.Rotation,
		HFlip:     p.HFlip,
		VFlip:     p.VFlip,
		Profile:   p.H264,
		Inline:    p.Inline,
	}, nil
}
