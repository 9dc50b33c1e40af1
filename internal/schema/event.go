package schema

import (
	"encoding/json"
	"strings"
)

// Scope classifies what an event covers.
type Scope string

const (
	ScopeMatch  Scope = "MATCH"
	ScopeSeason Scope = "SEASON"
)

// Event is a sporting event keyed by the feed's composite event key
// ("YYYY-MM-DD,<competition>,<match>").
type Event struct {
	Key             string
	Sport           string
	Period          string // empty means full time
	Scope           Scope
	Date            string // "YYYY-MM-DD"
	CompetitionID   string
	CompetitionName string
	EventType       string
	Home            string
	Away            string
	Teams           []string
	StartTs         string
	EndTs           string
	InRunning       bool
	IRStatus        json.RawMessage

	UpdateCount   int
	FirstUpdateTs int64
	LastUpdateTs  int64
}

// SportPeriod rebuilds the feed's "sport_period" identifier.
func (e *Event) SportPeriod() string {
	if e.Period == "" {
		return e.Sport
	}
	return e.Sport + "_" + strings.ToLower(e.Period)
}
