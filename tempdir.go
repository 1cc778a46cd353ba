package raspberrykit

import (
	"io/ioutil"
	"os"
)

// TempDir returns either a temporary directory in /dev/shm (if it exists), or
// otherwise in the OS default temporary directory. Capture tools write frames
// there, so shared memory is preferred over SD card wear.
func TempDir() (string, error) {
	// Check that /dev/shm exists first. Don't want to accidentally create
	// a directory in /dev (if someone runs this as root).
	if fi, err := os.Stat("/dev/shm"); err == nil && fi.IsDir() {
		dir, err := ioutil.TempDir("/dev/shm", "raspberrykit")
		if err == nil {
			return dir, nil
		}
	}
	return ioutil.TempDir("", "raspberrykit")
}
