package adapter

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"

	"main/internal/schema"
)

var ErrMissingEventKey = errors.New("event key is required")

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type eventPayload struct {
	EventType       string            `json:"event_type"`
	CompetitionID   json.RawMessage   `json:"competition_id"`
	CompetitionName string            `json:"competition_name"`
	Home            json.RawMessage   `json:"home"`
	Away            json.RawMessage   `json:"away"`
	HomeTeam        string            `json:"home_team"`
	AwayTeam        string            `json:"away_team"`
	Teams           []json.RawMessage `json:"teams"`
	StartTs         string            `json:"start_ts"`
	EndTs           string            `json:"end_ts"`
	IRStatus        json.RawMessage   `json:"ir_status"`
}

// NormalizeEvent builds an Event from an event frame. The sport and
// period come from the routing identifier, not the payload.
func NormalizeEvent(sportPeriod, eventKey string, raw json.RawMessage) (schema.Event, error) {
	if eventKey == "" {
		return schema.Event{}, ErrMissingEventKey
	}
	var p eventPayload
	if err := sonic.ConfigFastest.Unmarshal(raw, &p); err != nil {
		return schema.Event{}, err
	}

	parts := strings.Split(sportPeriod, "_")
	sport := parts[0]
	period := ""
	if len(parts) > 1 {
		period = strings.ToUpper(parts[1])
	}

	scope := determineScope(p)
	home, away := "", ""
	if scope == schema.ScopeMatch {
		home, away = extractTeams(p)
	}

	teams := make([]string, 0, len(p.Teams))
	for _, t := range p.Teams {
		if name := teamName(t); name != "" {
			teams = append(teams, name)
		}
	}

	return schema.Event{
		Key:             eventKey,
		Sport:           sport,
		Period:          period,
		Scope:           scope,
		Date:            extractDate(eventKey, p.StartTs),
		CompetitionID:   parseID(p.CompetitionID),
		CompetitionName: p.CompetitionName,
		EventType:       p.EventType,
		Home:            home,
		Away:            away,
		Teams:           teams,
		StartTs:         p.StartTs,
		EndTs:           p.EndTs,
		InRunning:       isInRunning(p.IRStatus),
		IRStatus:        p.IRStatus,
	}, nil
}

// extractDate prefers the date baked into the composite event key and
// falls back to the start timestamp.
func extractDate(eventKey, startTs string) string {
	head, _, _ := strings.Cut(eventKey, ",")
	if datePrefix.MatchString(head) {
		return head
	}
	if startTs != "" {
		day, _, _ := strings.Cut(startTs, "T")
		return day
	}
	return ""
}

// determineScope classifies the event. Two named sides mean a match;
// outright markets and long team lists mean a season market.
func determineScope(p eventPayload) schema.Scope {
	if hasValue(p.Home) && hasValue(p.Away) {
		return schema.ScopeMatch
	}
	if p.EventType == "multirunner" || p.EventType == "outright" {
		return schema.ScopeSeason
	}
	if len(p.Teams) > 2 {
		return schema.ScopeSeason
	}
	return schema.ScopeMatch
}

// extractTeams handles the three upstream team shapes: bare string,
// {name} object, and the home_team/away_team fallback fields.
func extractTeams(p eventPayload) (home, away string) {
	home = teamName(p.Home)
	if home == "" {
		home = p.HomeTeam
	}
	away = teamName(p.Away)
	if away == "" {
		away = p.AwayTeam
	}
	return home, away
}

func teamName(raw json.RawMessage) string {
	if !hasValue(raw) {
		return ""
	}
	var s string
	if err := sonic.ConfigFastest.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := sonic.ConfigFastest.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

// isInRunning reports whether the in-running status blob carries data.
func isInRunning(raw json.RawMessage) bool {
	if !hasValue(raw) {
		return false
	}
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "{}" && trimmed != `""` && trimmed != "false" && trimmed != "0"
}

func hasValue(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
