package camera

import (
	"reflect"
	"testing"
)

func TestParseDevices(t *testing.T) {
	const v4l2 = `bcm2835-codec-decode (platform:bcm2835-codec):
	/dev/video10
	/dev/video11
	/dev/video12

UVC Camera (046d:0825) (usb-0000:01:00.0-1.3):
	/dev/video1
	/dev/video2

bcm2835-unicam (platform:fe801000.csi):
	/dev/video0
`

	devs, err := parseDevices(v4l2)
	if err != nil {
		t.Fatalf("parsing v4l2-ctl output: %v", err)
	}
	exp := []Device{
		{Name: "bcm2835-unicam (platform:fe801000.csi)", ID: "/dev/video0"},
		{Name: "UVC Camera (046d:0825) (usb-0000:01:00.0-1.3)", ID: "/dev/video1"},
	}
	if !reflect.DeepEqual(devs, exp) {
		t.Fatalf("devices %v, expected %v", devs, exp)
	}
}

func TestParseDevicesEmpty(t *testing.T) {
	if _, err := parseDevices(""); err == nil {
		t.Fatalf("expected error for empty device list")
	}
}
