// Package filtering narrows a worker snapshot down to the workers a search asks for.
package filtering

import (
	"strings"

	"github.com/spigell/hire-labor/internal/registry"
)

// MatchesQuery reports whether the lowercased query is a substring of the
// worker's skill or name. An empty query matches every worker.
func MatchesQuery(query string, w registry.Worker) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	return strings.Contains(strings.ToLower(w.Skill), q) ||
		strings.Contains(strings.ToLower(w.Name), q)
}

// MatchesCategory reports whether a category token and the worker's skill contain
// one another, so "AC" matches "AC Repair" and "AC Repair Technician" matches "AC Repair".
func MatchesCategory(token string, w registry.Worker) bool {
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" {
		return false
	}
	skill := strings.ToLower(strings.TrimSpace(w.Skill))
	if skill == "" {
		return false
	}
	return strings.Contains(skill, t) || strings.Contains(t, skill)
}
