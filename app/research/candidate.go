// Package research drives one research job across all companies: discovery,
// deduplication, fetching, classification, and persistence.
package research

import (
	"time"
)

// Candidate is one discovered item not yet fetched or classified. Created
// per discovery call and discarded within one processing pass.
type Candidate struct {
	URL     string
	Title   string
	Snippet string
	Source  string // database.SourceSearch, SourcePressList, SourceManual
	// PublishedDate is the discovery-time date, if any.
	PublishedDate time.Time
	// DateValidated means the scraper already checked the date against the
	// job window; the orchestrator skips its own range check.
	DateValidated bool
}

// OutcomeKind is the terminal state of one candidate.
type OutcomeKind int

const (
	// OutcomePersisted means an article row was written.
	OutcomePersisted OutcomeKind = iota
	// OutcomeFiltered means the relevance check rejected the item.
	OutcomeFiltered
	// OutcomeDropped means dedup or the date-range policy rejected the item.
	OutcomeDropped
	// OutcomeErrored means a stage failed in a way that lost the item.
	OutcomeErrored
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePersisted:
		return "persisted"
	case OutcomeFiltered:
		return "filtered"
	case OutcomeDropped:
		return "dropped"
	case OutcomeErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Outcome tags the terminal state of one candidate with its reason.
type Outcome struct {
	Kind      OutcomeKind
	Reason    string
	ArticleID int64 // set when Kind is OutcomePersisted
}

func persisted(id int64) Outcome {
	return Outcome{Kind: OutcomePersisted, ArticleID: id}
}

func filtered(reason string) Outcome {
	return Outcome{Kind: OutcomeFiltered, Reason: reason}
}

func dropped(reason string) Outcome {
	return Outcome{Kind: OutcomeDropped, Reason: reason}
}

func errored(reason string) Outcome {
	return Outcome{Kind: OutcomeErrored, Reason: reason}
}
