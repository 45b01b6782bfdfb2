// Package taxonomy holds the keyword lists that drive classification: one
// ordered phrase list per pipeline stage plus a set of phrases that mark an
// email as job-related at all.
package taxonomy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStage is wrapped by ParseStage for names outside the taxonomy.
var ErrInvalidStage = errors.New("invalid stage")

// Stage is a hiring-pipeline bucket.
type Stage string

const (
	Application Stage = "application"
	Interview   Stage = "interview"
	Offer       Stage = "offer"
	Rejection   Stage = "rejection"
	// Other is the fallback for job-related mail that matched no stage phrase.
	Other Stage = "other"
)

// stageOrder is the match order. First match wins, so it is part of the
// classification contract.
var stageOrder = []Stage{Application, Interview, Offer, Rejection}

// AllStages returns every stage including Other, in display order.
func AllStages() []Stage {
	out := make([]Stage, 0, len(stageOrder)+1)
	out = append(out, stageOrder...)
	return append(out, Other)
}

// ParseStage accepts a stage name in any case ("Interview" and "interview"
// are the same stage).
func ParseStage(s string) (Stage, error) {
	st := Stage(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case Application, Interview, Offer, Rejection, Other:
		return st, nil
	}
	return "", fmt.Errorf("%w %q", ErrInvalidStage, s)
}

func (s Stage) String() string { return string(s) }

// Taxonomy is immutable after construction. Build one with New or Default and
// pass it to whoever needs it.
type Taxonomy struct {
	relevance []string
	stages    map[Stage][]string
}

// New builds a taxonomy from raw phrase lists. Phrases are lowercased and
// trimmed; empty phrases are dropped because an empty substring would match
// every email. Relevance phrases are deduplicated. Stage phrase order is kept.
func New(relevance []string, stages map[Stage][]string) (*Taxonomy, error) {
	t := &Taxonomy{stages: make(map[Stage][]string, len(stageOrder))}

	seen := make(map[string]struct{}, len(relevance))
	for _, p := range relevance {
		p = normalize(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		t.relevance = append(t.relevance, p)
	}

	for key, phrases := range stages {
		st, err := ParseStage(string(key))
		if err != nil {
			return nil, err
		}
		if st == Other {
			if len(phrases) > 0 {
				return nil, fmt.Errorf("stage %q cannot have phrases", Other)
			}
			continue
		}
		if _, dup := t.stages[st]; dup {
			return nil, fmt.Errorf("stage %q listed twice", st)
		}
		list := make([]string, 0, len(phrases))
		for _, p := range phrases {
			if p = normalize(p); p != "" {
				list = append(list, p)
			}
		}
		t.stages[st] = list
	}
	return t, nil
}

func normalize(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}

// RelevancePhrases returns a copy of the job-relevance phrases.
func (t *Taxonomy) RelevancePhrases() []string {
	return append([]string(nil), t.relevance...)
}

// StagePhrases returns a copy of the phrases for st. Other has none.
func (t *Taxonomy) StagePhrases(st Stage) []string {
	return append([]string(nil), t.stages[st]...)
}

// Stages returns the matchable stages in match order. Other is never included.
func (t *Taxonomy) Stages() []Stage {
	return append([]Stage(nil), stageOrder...)
}
