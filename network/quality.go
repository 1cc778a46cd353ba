package network

import (
	"fmt"
)

type networkState struct {
	index  int
	sum    float64
	values []float64
}

// QualityFilter is a moving average filter, for smoothing link quality
// readings across repeated scans. Single scans jump around a lot; smoothed
// values are more useful for picking an access point.
type QualityFilter struct {
	size  int
	state map[string]*networkState
}

// NewQualityFilter returns a new filter with a history of given size per
// network. Networks are registered as they first appear in an update.
func NewQualityFilter(size int) (*QualityFilter, error) {
	if size == 0 {
		return nil, fmt.Errorf("size must be > 0")
	}
	return &QualityFilter{
		size:  size,
		state: map[string]*networkState{},
	}, nil
}

// Update adds one scan's qualities, keyed by network name, to the filter.
// Update returns the smoothed quality per network based on the history.
// An empty update results in an error.
func (f *QualityFilter) Update(qualities map[string]float64) (map[string]float64, error) {
	if f.state == nil {
		return nil, fmt.Errorf("invalid QualityFilter, use NewQualityFilter")
	}
	if len(qualities) == 0 {
		return nil, fmt.Errorf("qualities must not be empty")
	}

	r := map[string]float64{}
	for name, value := range qualities {
		ns, ok := f.state[name]
		if !ok {
			ns = &networkState{0, 0, make([]float64, f.size)}
			f.state[name] = ns
		}
		ns.sum -= ns.values[ns.index]
		ns.sum += value
		ns.values[ns.index] = value
		ns.index = (ns.index + 1) % len(ns.values)
		r[name] = ns.sum / float64(len(ns.values))
	}
	return r, nil
}
