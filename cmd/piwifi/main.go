// Command piwifi lists network adapters and scans for wireless networks.
//
// Examples:
//
//	# List adapters with their addresses.
//	piwifi
//
//	# Scan for wireless networks on wlan0 (usually needs root).
//	sudo piwifi -scan
//
//	# Scan repeatedly, smoothing link quality over the last 5 scans.
//	sudo piwifi -scan -repeat 5s -maf 5
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/raspberrykit/camera-sdk-go/network"
)

var (
	scan    bool
	iface   string
	repeat  time.Duration
	mafSize int
)

func init() {
	flag.BoolVar(&scan, "scan", false, "scan for wireless networks instead of listing adapters")
	flag.StringVar(&iface, "interface", "wlan0", "wireless interface to scan on")
	flag.DurationVar(&repeat, "repeat", 0, "if set, rescan at this interval until interrupted")
	flag.IntVar(&mafSize, "maf", 0, "apply moving-average-filter to link quality of given size (only if >0)")
}

func usage() {
	log.Println("usage: piwifi [flags]")
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
	if !scan {
		adapters, err := network.Adapters()
		if err != nil {
			log.Printf("listing adapters: %v", err)
			return 1
		}
		for _, a := range adapters {
			kind := "wired"
			if a.Wireless {
				kind = "wireless"
			}
			fmt.Printf("%s (%s): ipv4 %s, ipv6 %s\n", a.Name, kind, orNone(a.IPv4), orNone(a.IPv6))
		}
		return 0
	}

	var filter *network.QualityFilter
	if mafSize > 0 {
		var err error
		filter, err = network.NewQualityFilter(mafSize)
		if err != nil {
			log.Printf("new quality filter: %v", err)
			return 1
		}
	}

	for {
		networks, err := network.ScanNetworks(iface)
		if err != nil {
			log.Printf("scanning: %v", err)
			return 1
		}

		quality := map[string]float64{}
		for _, n := range networks {
			quality[n.Name] = n.Quality
		}
		if filter != nil && len(quality) > 0 {
			quality, err = filter.Update(quality)
			if err != nil {
				log.Printf("smoothing quality: %v", err)
				return 1
			}
		}

		sort.Slice(networks, func(i, j int) bool {
			return quality[networks[i].Name] > quality[networks[j].Name]
		})
		for _, n := range networks {
			enc := "open"
			if n.Encrypted {
				enc = "encrypted"
			}
			fmt.Printf("%-24q ch %2d, quality %3.0f%%, %s, %s\n", n.Name, n.Channel, quality[n.Name], enc, n.Address)
		}

		if repeat == 0 {
			return 0
		}
		time.Sleep(repeat)
		fmt.Println()
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
