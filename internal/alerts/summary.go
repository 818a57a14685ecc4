package alerts

// Summary counts alerts by priority and rule.
type Summary struct {
	Total          int              `json:"total"`
	Unacknowledged int              `json:"unacknowledged"`
	ByPriority     map[Priority]int `json:"byPriority"`
	ByRule         map[string]int   `json:"byRule"`
}

// Summarize reduces an alert list to counts.
func Summarize(alerts []Triggered) Summary {
	s := Summary{
		Total:      len(alerts),
		ByPriority: make(map[Priority]int),
		ByRule:     make(map[string]int),
	}
	for _, a := range alerts {
		if !a.Acknowledged {
			s.Unacknowledged++
		}
		s.ByPriority[a.Priority]++
		s.ByRule[a.RuleID]++
	}
	return s
}
