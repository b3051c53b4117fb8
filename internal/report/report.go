// Package report turns stored profiles and journals into reviewer views.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MikeSquared-Agency/wellcheck/internal/scoring"
	"github.com/MikeSquared-Agency/wellcheck/internal/store"
)

// A journal counts as high risk when it is both strongly negative and
// emphatic.
const (
	HighRiskScore     = -0.7
	HighRiskMagnitude = 2.0
)

const routineMonitoring = "This student's scores and journal entries are within normal parameters. Routine monitoring is recommended."

// Summary is one dashboard row.
type Summary struct {
	store.Profile
	Status scoring.Status `json:"mental_health_status"`
}

type Bands struct {
	Anxiety    scoring.Band `json:"anxiety"`
	Depression scoring.Band `json:"depression"`
	Stress     scoring.Band `json:"stress"`
}

type Journal struct {
	store.JournalEntry
	Label    string `json:"sentiment_label,omitempty"`
	HighRisk bool   `json:"high_risk"`
}

// Report is the per-student reviewer view.
type Report struct {
	Summary
	Bands    Bands     `json:"bands"`
	Journals []Journal `json:"journals"`
	Analysis []string  `json:"analysis"`
}

func Summarize(p store.Profile) Summary {
	return Summary{Profile: p, Status: scoring.StatusFor(p.NeedsHelp, p.Scores())}
}

// Build assembles the report for one student.
func Build(p store.Profile, journals []store.JournalEntry) Report {
	views := make([]Journal, 0, len(journals))
	for _, j := range journals {
		v := Journal{JournalEntry: j, HighRisk: highRisk(j)}
		if j.Analyzed() {
			v.Label = scoring.SentimentLabel(*j.SentimentScore, *j.SentimentMagnitude)
		}
		views = append(views, v)
	}
	return Report{
		Summary: Summarize(p),
		Bands: Bands{
			Anxiety:    scoring.BandFor(p.AnxietyScore),
			Depression: scoring.BandFor(p.DepressionScore),
			Stress:     scoring.BandFor(p.StressScore),
		},
		Journals: views,
		Analysis: Analyze(p, journals),
	}
}

// Analyze produces the reviewer bullet points for a student.
func Analyze(p store.Profile, journals []store.JournalEntry) []string {
	var points []string

	if p.NeedsHelp {
		msg := "This student has been automatically flagged for high-risk content. Immediate intervention is required."
		if p.LastUrgentReason != nil && *p.LastUrgentReason != "" {
			msg += " Reason: " + *p.LastUrgentReason
		}
		points = append(points, msg)
	}

	for _, c := range []struct {
		name  string
		score int
	}{
		{"Depression", p.DepressionScore},
		{"Anxiety", p.AnxietyScore},
		{"Stress", p.StressScore},
	} {
		switch band := scoring.BandFor(c.score); band {
		case scoring.BandSevere, scoring.BandModerate:
			points = append(points, fmt.Sprintf("Recent check-ins and wearable data indicate a '%s' level of %s (%d).", band, c.name, c.score))
		}
	}

	if n := countHighRisk(journals); n > 0 {
		noun := "entries"
		if n == 1 {
			noun = "entry"
		}
		points = append(points, fmt.Sprintf("The journal history contains %d %s with highly negative and severe sentiment.", n, noun))
	}

	if len(points) == 0 {
		points = append(points, routineMonitoring)
	}
	return points
}

func highRisk(j store.JournalEntry) bool {
	return j.Analyzed() && *j.SentimentScore <= HighRiskScore && *j.SentimentMagnitude > HighRiskMagnitude
}

func countHighRisk(journals []store.JournalEntry) int {
	n := 0
	for _, j := range journals {
		if highRisk(j) {
			n++
		}
	}
	return n
}

// SortForDashboard orders students most pressing first, then by name.
func SortForDashboard(profiles []store.Profile) []Summary {
	out := make([]Summary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, Summarize(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Status.Rank(), out[j].Status.Rank()
		if ri != rj {
			return ri < rj
		}
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out
}
