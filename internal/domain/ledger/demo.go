package ledger

import "github.com/okian/interviewsched/internal/domain/model"

const (
	demoTimezone   = "America/Los_Angeles"
	demoMaxPerWeek = 5
)

// DemoRoster returns five demo interviewers, one per specialty.
func DemoRoster() []model.Interviewer {
	entries := []struct{ id, name, email, specialty string }{
		{"sa1", "Alex Chen", "alex.chen@company.com", "Data Engineering"},
		{"sa2", "Jordan Rivera", "jordan.rivera@company.com", "ML/AI"},
		{"sa3", "Sam Taylor", "sam.taylor@company.com", "Platform"},
		{"sa4", "Morgan Lee", "morgan.lee@company.com", "Data Science"},
		{"sa5", "Casey Kim", "casey.kim@company.com", "Cloud Architecture"},
	}
	out := make([]model.Interviewer, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.Interviewer{
			ID:         e.id,
			Name:       e.name,
			Email:      e.email,
			CalendarID: e.email,
			Timezone:   demoTimezone,
			Specialty:  e.specialty,
			MaxPerWeek: demoMaxPerWeek,
			Active:     true,
		})
	}
	return out
}
