package domain

// SearchResult is one predictive-search product match.
type SearchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Image string `json:"image,omitempty"`
	Price int64  `json:"price"`
}

// SearchState names the phases of a predictive-search session.
type SearchState string

const (
	SearchIdle    SearchState = "idle"
	SearchPending SearchState = "pending"
	SearchLoading SearchState = "loading"
	SearchSettled SearchState = "settled"
)

// SearchOutcome distinguishes the terminal settled states.
type SearchOutcome string

const (
	SearchOutcomeResults SearchOutcome = "results"
	SearchOutcomeEmpty   SearchOutcome = "empty"
	SearchOutcomeError   SearchOutcome = "error"
)
