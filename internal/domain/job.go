package domain

// RawPosting is a job listing exactly as an adapter returned it.
type RawPosting struct {
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`
	URL      string `json:"url"`
	Company  string `json:"company"` // Company.Name, back-reference only
}

// MatchedPosting pairs a posting with the first target title it contained.
type MatchedPosting struct {
	RawPosting
	Target TargetTitle `json:"target"`
}
