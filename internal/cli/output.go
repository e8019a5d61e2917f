package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rajachanda/rps/internal/api/response"
	"github.com/rajachanda/rps/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter. A nil writer means stdout.
func NewOutput(format string, w io.Writer) *Output {
	if w == nil {
		w = os.Stdout
	}
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(os.Stderr, string(data))
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.HealthResponse:
		o.printf("Status: %s\n", v.Status)
	case response.StatsResponse:
		o.printf("Rooms: %d\n", v.Rooms)
		o.printf("Connections: %d\n", v.Connections)
	case model.Snapshot:
		o.printRoom(v)
	default:
		o.printJSON(data)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printRoom(r model.Snapshot) {
	o.printf("Room: %s\n", r.Code)
	o.printf("State: %s\n", r.Phase)
	o.printf("Round: %d\n", r.CurrentRound)
	o.printf("Target: %d\n", r.TargetScore)
	o.printf("Players (%d):\n", len(r.Participants))
	for _, p := range r.Participants {
		hostStr := ""
		if p.ID == r.HostID {
			hostStr = " [host]"
		}
		o.printf("  - %s: %d%s\n", p.DisplayName, p.Score, hostStr)
	}
	if len(r.PendingChoices) > 0 {
		o.printf("Chosen: %s\n", strings.Join(chosenNames(r), ", "))
	}
}

// chosenNames lists who has locked in a choice without revealing it
func chosenNames(r model.Snapshot) []string {
	var names []string
	for _, p := range r.Participants {
		if _, ok := r.PendingChoices[p.ID]; ok {
			names = append(names, p.DisplayName)
		}
	}
	sort.Strings(names)
	return names
}

// scoreLine renders "Alice 2 - 1 Bob" in seat order
func scoreLine(r model.Snapshot) string {
	parts := make([]string, 0, len(r.Participants))
	for _, p := range r.Participants {
		parts = append(parts, fmt.Sprintf("%s %d", p.DisplayName, p.Score))
	}
	return strings.Join(parts, " - ")
}
