// Package classify decides whether an email is job-related and, if so, which
// pipeline stage it belongs to.
//
// Matching is plain substring presence on the lowercased subject and snippet.
// There is no scoring: the first stage (in taxonomy order) with any matching
// phrase wins, and relevant mail that matches nothing is taxonomy.Other.
// Phrases match inside other words too ("applied" matches "misapplied").
package classify

import (
	"strings"

	"jobtrail/internal/taxonomy"
)

// Classifier is safe for concurrent use; it only reads its taxonomy.
type Classifier struct {
	relevance []string
	stages    []taxonomy.Stage
	phrases   map[taxonomy.Stage][]string
}

// New snapshots tx so that later calls never touch the taxonomy again.
func New(tx *taxonomy.Taxonomy) *Classifier {
	c := &Classifier{
		relevance: tx.RelevancePhrases(),
		stages:    tx.Stages(),
		phrases:   make(map[taxonomy.Stage][]string),
	}
	for _, st := range c.stages {
		c.phrases[st] = tx.StagePhrases(st)
	}
	return c
}

// Classify returns the stage for an email and true, or false when the email
// is not job-related.
func (c *Classifier) Classify(subject, snippet string) (taxonomy.Stage, bool) {
	text := strings.ToLower(subject) + " " + strings.ToLower(snippet)

	if !containsAny(text, c.relevance) {
		return "", false
	}
	for _, st := range c.stages {
		if containsAny(text, c.phrases[st]) {
			return st, true
		}
	}
	return taxonomy.Other, true
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
