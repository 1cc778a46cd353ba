package camera

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var errInstallHint = errors.New("executable not found, install with: sudo apt install -y v4l-utils")

// Device is a video device known to the kernel.
type Device struct {
	Name string // Human-readable name, eg "bcm2835-unicam (platform:fe801000.csi)".
	ID   string // Device node, eg /dev/video0.
}

// ListDevices returns the video devices available on the system, the camera
// module's unicam node(s) first.
// ListDevices returns an error if no devices are available.
func ListDevices() ([]Device, error) {
	cmd := exec.Command("v4l2-ctl", "--list-devices")
	buf, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = errInstallHint
		}
		return nil, fmt.Errorf("listing devices using v4l2-ctl: %v", err)
	}
	return parseDevices(string(buf))
}

// Drivers behind the Pi camera connector, preferred over USB webcams.
var cameraModuleDrivers = []string{"bcm2835-unicam", "unicam", "rp1-cfe", "mmal service"}

func parseDevices(s string) ([]Device, error) {
	var curDevice string
	devices := []Device{}
	for _, line := range strings.Split(s, "\n") {
		if !strings.HasPrefix(line, "\t") {
			curDevice = strings.TrimSpace(line)
			continue
		}
		if curDevice == "" {
			continue
		}
		// Codec and ISP nodes are not capture devices.
		if strings.Contains(curDevice, "bcm2835-codec") || strings.Contains(curDevice, "bcm2835-isp") {
			continue
		}
		dev := Device{
			Name: strings.TrimSuffix(curDevice, ":"),
			ID:   strings.TrimSpace(line),
		}
		if isCameraModule(dev.Name) {
			devices = append([]Device{dev}, devices...)
		} else {
			devices = append(devices, dev)
		}
		// Only the first node per device; the rest are metadata nodes.
		curDevice = ""
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no devices available")
	}
	return devices, nil
}

func isCameraModule(name string) bool {
	for _, d := range cameraModuleDrivers {
		if strings.Contains(name, d) {
			return true
		}
	}
	return false
}
