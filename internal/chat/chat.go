// Package chat answers plain-language questions about the facility from a
// stats snapshot. Matching is rule based; the first rule that fires wins.
package chat

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"wastetwin/internal/stats"
)

// StatsSource supplies the snapshot a reply is computed from.
type StatsSource interface {
	Stats() stats.Snapshot
}

// Responder produces chat replies. It is safe for concurrent use.
type Responder struct {
	source StatsSource
}

// NewResponder builds a responder over source.
func NewResponder(source StatsSource) *Responder {
	return &Responder{source: source}
}

var materialPattern = regexp.MustCompile(`how much (\w+)|(\w+)\s+recovered`)

type rule struct {
	words    []string
	phrases  []string
	response func(*Responder, stats.Snapshot) string
}

var rules = []rule{
	{
		words: []string{"hello", "hi", "hey"},
		response: func(*Responder, stats.Snapshot) string {
			return "Hello! How can I help with the recovery facility today?"
		},
	},
	{
		words: []string{"help", "commands"},
		response: func(*Responder, stats.Snapshot) string {
			return "I can answer questions about system status, the processing queue, active processes and materials recovered. " +
				"Try \"What's the queue length?\" or \"How much gold have we recovered?\""
		},
	},
	{
		phrases: []string{"total processed", "items processed", "how many items"},
		response: func(_ *Responder, s stats.Snapshot) string {
			return fmt.Sprintf("The facility has processed %d items so far.", s.TotalCompleted)
		},
	},
	{
		phrases: []string{"queue length", "queue status", "items in queue"},
		response: func(_ *Responder, s stats.Snapshot) string {
			return fmt.Sprintf("There are currently %d items waiting in the queue.", s.QueueLength)
		},
	},
	{
		phrases: []string{"active processes", "processing now", "currently processing"},
		response: func(_ *Responder, s stats.Snapshot) string {
			if s.ActiveCount == 0 {
				return "There are no items in active processing at the moment."
			}
			return fmt.Sprintf("There are %d items being processed right now, including: %s.",
				s.ActiveCount, strings.Join(s.ActiveIDs(), ", "))
		},
	},
	{
		phrases: []string{"system status", "status of the system", "is the system"},
		response: func(_ *Responder, s stats.Snapshot) string {
			// Caser is stateful and not safe to share across requests.
			status := cases.Title(language.English).String(string(s.Status))
			return fmt.Sprintf("The current system status is %s.", status)
		},
	},
}

// Reply answers message.
func (r *Responder) Reply(message string) string {
	message = strings.ToLower(strings.TrimSpace(message))
	if message == "" {
		return fallback
	}
	snap := r.source.Stats()
	words := tokenize(message)

	for _, rl := range rules {
		if rl.matches(message, words) {
			return rl.response(r, snap)
		}
	}

	if match := materialPattern.FindStringSubmatch(message); match != nil {
		material := match[1]
		if material == "" {
			material = match[2]
		}
		return r.materialReply(snap, material)
	}
	return fallback
}

const fallback = "Sorry, I don't understand that request. Try asking about system status, the queue or materials."

func (r *Responder) materialReply(snap stats.Snapshot, material string) string {
	material = strings.ReplaceAll(strings.ToLower(material), " ", "_")
	label := strings.ReplaceAll(material, "_", " ")
	amount, ok := snap.MaterialTotals[material]
	if !ok {
		return fmt.Sprintf("I don't have data for %q. It might not be a primary material.", label)
	}
	return fmt.Sprintf("We have recovered %.4f kg of %s so far.", amount, label)
}

func (rl rule) matches(message string, words map[string]struct{}) bool {
	for _, w := range rl.words {
		if _, ok := words[w]; ok {
			return true
		}
	}
	for _, p := range rl.phrases {
		if strings.Contains(message, p) {
			return true
		}
	}
	return false
}

func tokenize(message string) map[string]struct{} {
	fields := strings.FieldsFunc(message, func(r rune) bool {
		return !(r == '_' || r == '\'' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
	words := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		words[f] = struct{}{}
	}
	return words
}
