package domain

// ImportCounts buckets imports by lifecycle status.
type ImportCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// ObservationCounts aggregates stored observations across all imports.
type ObservationCounts struct {
	Total int `json:"total"`
}

// Summary is a single consistent snapshot of cross-import counts.
type Summary struct {
	Imports      ImportCounts      `json:"imports"`
	Observations ObservationCounts `json:"observations"`
}
