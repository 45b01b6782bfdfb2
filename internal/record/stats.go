package record

import (
	"fmt"
	"sort"
	"time"

	"jobtrail/internal/taxonomy"
)

// RecentWindow is the lookback for Stats.Recent.
const RecentWindow = 7 * 24 * time.Hour

// StageCount is one row of the by-stage breakdown.
type StageCount struct {
	Stage taxonomy.Stage
	Count int
}

// Pipeline holds the funnel totals used for rate computation.
type Pipeline struct {
	Applications int
	Interviews   int
	Offers       int
	Rejections   int
}

// ResponseRate is interviews / applications. ok is false with no applications.
func (p Pipeline) ResponseRate() (rate float64, ok bool) {
	if p.Applications == 0 {
		return 0, false
	}
	return float64(p.Interviews) / float64(p.Applications), true
}

// OfferRate is offers / applications. ok is false with no applications.
func (p Pipeline) OfferRate() (rate float64, ok bool) {
	if p.Applications == 0 {
		return 0, false
	}
	return float64(p.Offers) / float64(p.Applications), true
}

// FormatRate renders a rate from ResponseRate or OfferRate as a percentage,
// or "n/a" when it is undefined.
func FormatRate(rate float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", rate*100)
}

// Stats is the aggregate view over all stored records.
type Stats struct {
	Total    int
	ByStage  []StageCount // count desc, then stage name asc
	Recent   int          // received within RecentWindow
	Pipeline Pipeline
}

// NewStats assembles Stats from raw per-stage counts. Stage keys that do not
// parse (legacy labels) are kept in ByStage under their raw name.
func NewStats(byStage map[string]int, recent int) Stats {
	s := Stats{Recent: recent}
	for name, n := range byStage {
		st := taxonomy.Stage(name)
		if parsed, err := taxonomy.ParseStage(name); err == nil {
			st = parsed
		}
		s.Total += n
		s.ByStage = append(s.ByStage, StageCount{Stage: st, Count: n})
		switch st {
		case taxonomy.Application:
			s.Pipeline.Applications += n
		case taxonomy.Interview:
			s.Pipeline.Interviews += n
		case taxonomy.Offer:
			s.Pipeline.Offers += n
		case taxonomy.Rejection:
			s.Pipeline.Rejections += n
		}
	}
	s.ByStage = mergeCounts(s.ByStage)
	sort.SliceStable(s.ByStage, func(i, j int) bool {
		if s.ByStage[i].Count == s.ByStage[j].Count {
			return s.ByStage[i].Stage < s.ByStage[j].Stage
		}
		return s.ByStage[i].Count > s.ByStage[j].Count
	})
	return s
}

// mergeCounts folds rows like "Interview" and "interview" into one.
func mergeCounts(rows []StageCount) []StageCount {
	idx := make(map[taxonomy.Stage]int, len(rows))
	out := rows[:0]
	for _, r := range rows {
		if i, ok := idx[r.Stage]; ok {
			out[i].Count += r.Count
			continue
		}
		idx[r.Stage] = len(out)
		out = append(out, r)
	}
	return out
}
