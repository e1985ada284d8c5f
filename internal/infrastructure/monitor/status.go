package monitor

import "time"

type Status struct {
	Components map[string]bool `json:"components"`
	Buffer     bool            `json:"buffer"`
	BufferSize int             `json:"buffer_size"`
	LastCheck  time.Time       `json:"last_check"`
}

// Healthy reports whether every probed component answered.
func (s Status) Healthy() bool {
	if len(s.Components) == 0 {
		return false
	}
	for _, ok := range s.Components {
		if !ok {
			return false
		}
	}
	return true
}
