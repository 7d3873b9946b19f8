package stats

// Stat is a single dashboard aggregate with its change against the previous
// period.
type Stat struct {
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
}

// Dashboard holds the aggregates the backend computes for today. They cannot
// be derived from feed deltas, which is why needs-refresh escalation exists.
type Dashboard struct {
	Revenue               Stat `json:"revenue"`
	Orders                Stat `json:"orders"`
	AvgOrderValue         Stat `json:"avgOrderValue"`
	RepeatOrderPercentage Stat `json:"repeatOrderPercentage"`
}
