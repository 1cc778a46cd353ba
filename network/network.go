// Package network reads network adapter state and scans for wireless
// networks by executing the system networking tools and parsing their
// output.
package network

import (
	"bufio"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

var errInstallHint = errors.New("executable not found, install with: sudo apt install -y wireless-tools")

// Adapter is a network interface with its assigned addresses.
type Adapter struct {
	Name     string // Interface name, eg wlan0.
	IPv4     string // First global IPv4 address, if any.
	IPv6     string // First IPv6 address, if any.
	Wireless bool
}

// Adapters returns the network adapters on the system, loopback excluded.
func Adapters() ([]Adapter, error) {
	cmd := exec.Command("ip", "-o", "addr", "show")
	buf, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("listing adapters using ip: %v", err)
	}
	return parseIPAddr(string(buf))
}

func parseIPAddr(s string) ([]Adapter, error) {
	var r []Adapter
	index := map[string]int{}

	b := bufio.NewScanner(strings.NewReader(s))
	for b.Scan() {
		fields := strings.Fields(b.Text())
		if len(fields) < 4 {
			continue
		}
		name := fields[1]
		if name == "lo" {
			continue
		}
		addr := strings.SplitN(fields[3], "/", 2)[0]

		i, ok := index[name]
		if !ok {
			r = append(r, Adapter{
				Name:     name,
				Wireless: strings.HasPrefix(name, "wl"),
			})
			i = len(r) - 1
			index[name] = i
		}
		switch fields[2] {
		case "inet":
			if r[i].IPv4 == "" {
				r[i].IPv4 = addr
			}
		case "inet6":
			if r[i].IPv6 == "" {
				r[i].IPv6 = addr
			}
		}
	}
	if err := b.Err(); err != nil {
		return nil, fmt.Errorf("parsing adapter list: %v", err)
	}
	return r, nil
}

// WirelessNetwork is one access point found in a wireless scan.
type WirelessNetwork struct {
	Name      string  // ESSID.
	Address   string  // Access point MAC.
	Channel   int
	Quality   float64 // Link quality in percent, 0-100.
	Encrypted bool
}

// ScanNetworks scans for wireless networks on the named interface, eg
// "wlan0". Scanning usually requires root.
func ScanNetworks(iface string) ([]WirelessNetwork, error) {
	cmd := exec.Command("iwlist", iface, "scanning")
	buf, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = errInstallHint
		}
		return nil, fmt.Errorf("scanning on %s using iwlist: %v", iface, err)
	}
	return parseIwlistScan(string(buf))
}

var (
	cellRegexp    = regexp.MustCompile(`^Cell \d+ - Address: ([0-9A-Fa-f:]+)$`)
	qualityRegexp = regexp.MustCompile(`Quality=(\d+)/(\d+)`)
)

func parseIwlistScan(s string) ([]WirelessNetwork, error) {
	var r []WirelessNetwork
	var cur *WirelessNetwork

	b := bufio.NewScanner(strings.NewReader(s))
	for b.Scan() {
		line := strings.TrimSpace(b.Text())

		if m := cellRegexp.FindStringSubmatch(line); m != nil {
			if cur != nil {
				r = append(r, *cur)
			}
			cur = &WirelessNetwork{Address: m[1]}
			continue
		}
		if cur == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "ESSID:"):
			cur.Name = strings.Trim(strings.TrimPrefix(line, "ESSID:"), `"`)
		case strings.HasPrefix(line, "Channel:"):
			ch, err := strconv.Atoi(strings.TrimPrefix(line, "Channel:"))
			if err == nil {
				cur.Channel = ch
			}
		case strings.HasPrefix(line, "Encryption key:"):
			cur.Encrypted = strings.TrimPrefix(line, "Encryption key:") == "on"
		default:
			if m := qualityRegexp.FindStringSubmatch(line); m != nil {
				q, qerr := strconv.ParseFloat(m[1], 64)
				max, merr := strconv.ParseFloat(m[2], 64)
				if qerr == nil && merr == nil && max > 0 {
					cur.Quality = 100 * q / max
				}
			}
		}
	}
	if err := b.Err(); err != nil {
		return nil, fmt.Errorf("parsing iwlist scan: %v", err)
	}
	if cur != nil {
		r = append(r, *cur)
	}
	return r, nil
}
