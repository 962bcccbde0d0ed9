package model

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints do not overlap.
func (iv Interval) Overlaps(o Interval) bool {
	return !(!iv.End.After(o.Start) || !iv.Start.Before(o.End))
}

// OverlapsAny reports whether iv intersects any of busy.
func (iv Interval) OverlapsAny(busy []Interval) bool {
	for _, b := range busy {
		if iv.Overlaps(b) {
			return true
		}
	}
	return false
}
