package model

type AggregateEntry struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// GardenSummary is the JSON shape the summary prompt asks the model for.
type GardenSummary struct {
	Summary string `json:"summary"`
}
