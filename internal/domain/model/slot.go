package model

import (
	"sort"
	"time"
)

// TimeSlot is a fixed-duration candidate interval with per-interviewer availability.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// Availability maps interviewer id to whether the interviewer is free.
	Availability map[string]bool `json:"availability"`
	// Simulated marks interviewers whose availability came from the
	// deterministic fallback instead of a calendar.
	Simulated map[string]bool `json:"simulated,omitempty"`
	// InterviewerLocal holds the slot start formatted in each interviewer's timezone.
	InterviewerLocal map[string]string `json:"interviewer_local"`
	// CandidateLocal is the slot start formatted in the candidate's timezone.
	CandidateLocal string `json:"candidate_local"`
}

// Interval returns the slot as a half-open interval.
func (s TimeSlot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// AvailableIDs returns the ids of available interviewers in ascending order.
func (s TimeSlot) AvailableIDs() []string {
	ids := make([]string, 0, len(s.Availability))
	for id, ok := range s.Availability {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// HasAvailable reports whether at least one interviewer is free.
func (s TimeSlot) HasAvailable() bool {
	for _, ok := range s.Availability {
		if ok {
			return true
		}
	}
	return false
}

// SlotKey is the UTC-normalized start instant used to merge slots.
type SlotKey int64

// KeyOf returns the merge key for a start instant.
func KeyOf(t time.Time) SlotKey {
	return SlotKey(t.UTC().Unix())
}

// SlotSet merges slots proposed independently for different interviewers.
// Slots landing on the same absolute instant combine their availability maps.
// The zero value is not usable; call NewSlotSet.
type SlotSet struct {
	slots map[SlotKey]*TimeSlot
}

// NewSlotSet returns an empty set.
func NewSlotSet() *SlotSet {
	return &SlotSet{slots: make(map[SlotKey]*TimeSlot)}
}

// Len returns the number of distinct start instants.
func (ss *SlotSet) Len() int { return len(ss.slots) }

// Add records one interviewer's view of a slot. An interviewer already
// marked available in the merged slot stays available.
func (ss *SlotSet) Add(start, end time.Time, interviewerID string, available, simulated bool, interviewerLocal, candidateLocal string) {
	key := KeyOf(start)
	slot, ok := ss.slots[key]
	if !ok {
		slot = &TimeSlot{
			Start:            start.UTC(),
			End:              end.UTC(),
			Availability:     make(map[string]bool),
			Simulated:        make(map[string]bool),
			InterviewerLocal: make(map[string]string),
			CandidateLocal:   candidateLocal,
		}
		ss.slots[key] = slot
	}
	slot.Availability[interviewerID] = slot.Availability[interviewerID] || available
	if simulated {
		slot.Simulated[interviewerID] = true
	}
	slot.InterviewerLocal[interviewerID] = interviewerLocal
}

// Slots returns the slots with at least one available interviewer, ordered
// by start instant. The result is the same regardless of insertion order.
func (ss *SlotSet) Slots() []TimeSlot {
	out := make([]TimeSlot, 0, len(ss.slots))
	for _, s := range ss.slots {
		if !s.HasAvailable() {
			continue
		}
		cp := *s
		if len(cp.Simulated) == 0 {
			cp.Simulated = nil
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
