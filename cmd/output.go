package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spigell/hire-labor/internal/search"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func printState(w io.Writer, state search.State, format string) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	case outputTable, "":
		return printTable(w, state)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func printTable(w io.Writer, state search.State) error {
	if state.NoResults {
		_, err := fmt.Fprintf(w, "No workers found for %q\n", strings.TrimSpace(state.Query))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSKILL\tSTATUS\tPHONE\tLOCATION")
	for _, worker := range state.Results {
		status := "busy"
		if worker.Available {
			status = "available"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.4f,%.4f\n",
			worker.ID, worker.Name, worker.Skill, status, worker.Phone,
			worker.Location.Lat, worker.Location.Lng,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, summary(state))
	return err
}

// summary is one line: count, how the result was produced and a per-skill legend.
func summary(state search.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d worker(s)", len(state.Results))

	switch state.Mode {
	case search.ModeClassified:
		if len(state.Categories) == 0 {
			b.WriteString(", no matching skill")
		} else {
			fmt.Fprintf(&b, ", skills: %s", strings.Join(state.Categories, ", "))
		}
	case search.ModeLocal:
		b.WriteString(", matched by text")
	}

	counts := state.CountBySkill()
	skills := make([]string, 0, len(counts))
	for skill := range counts {
		skills = append(skills, skill)
	}
	sort.Strings(skills)

	parts := make([]string, 0, len(skills))
	for _, skill := range skills {
		parts = append(parts, fmt.Sprintf("%s: %d", skill, counts[skill]))
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(parts, ", "))
	}

	return b.String()
}
