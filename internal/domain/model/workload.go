package model

// Workload is one interviewer's load over the fairness and capacity windows.
// It is derived from the ledger on every call and never cached.
type Workload struct {
	InterviewerID   string  `json:"interviewer_id"`
	InterviewerName string  `json:"name"`
	Specialty       string  `json:"specialty"`
	CountInWindow   int     `json:"interviews_in_window"`
	CountThisWeek   int     `json:"interviews_this_week"`
	MaxPerWeek      int     `json:"max_per_week"`
	FairShare       float64 `json:"fair_share"`
	Deviation       float64 `json:"deviation"`
	CapacityUsed    float64 `json:"capacity_used"`
	AtCapacity      bool    `json:"at_capacity"`
	BaseScore       float64 `json:"priority_score"`
}

// RankedInterviewer is a workload with the final score for one interview type.
type RankedInterviewer struct {
	Workload
	Score          float64 `json:"score"`
	SpecialtyMatch bool    `json:"specialty_match"`
}
