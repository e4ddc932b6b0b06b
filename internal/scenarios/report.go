package scenarios

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const summaryFile = "summary.toml"

type summaryDoc struct {
	RunID       string          `toml:"run_id"`
	StartedAt   time.Time       `toml:"started_at"`
	Duration    string          `toml:"duration"`
	Passed      int             `toml:"passed"`
	Failed      int             `toml:"failed"`
	Interrupted bool            `toml:"interrupted"`
	Scenarios   []scenarioEntry `toml:"scenario"`
}

type scenarioEntry struct {
	Name      string   `toml:"name"`
	Passed    bool     `toml:"passed"`
	Duration  string   `toml:"duration"`
	Error     string   `toml:"error,omitempty"`
	Artifacts []string `toml:"artifacts,omitempty"`
}

func newSummaryDoc(s *Summary) summaryDoc {
	doc := summaryDoc{
		RunID:       s.RunID,
		StartedAt:   s.StartedAt,
		Duration:    s.Duration.Round(time.Millisecond).String(),
		Passed:      s.Passed(),
		Failed:      s.Failed(),
		Interrupted: s.Interrupted,
	}
	for _, r := range s.Results {
		entry := scenarioEntry{
			Name:      r.Name,
			Passed:    r.Passed,
			Duration:  r.Duration.Round(time.Millisecond).String(),
			Artifacts: r.Artifacts,
		}
		if r.Err != nil {
			entry.Error = r.Err.Error()
		}
		doc.Scenarios = append(doc.Scenarios, entry)
	}
	return doc
}

// writeSummary writes summary.toml into the run directory and returns its path
func writeSummary(s *Summary) (string, error) {
	data, err := toml.Marshal(newSummaryDoc(s))
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}

	path := filepath.Join(s.Dir, summaryFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}
