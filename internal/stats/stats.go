// Package stats computes conversation statistics over the loaded store:
// word counts (total and per sender), message counts, and reaction tallies
// for both receivers and givers. These are the aggregates the dashboards
// chart; word counting is a plain whitespace split over already-normalized
// content.
package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/threadkeep/threadkeep/internal/normalize"
	"github.com/threadkeep/threadkeep/internal/store"
)

// Report holds the aggregates for one conversation store.
type Report struct {
	TotalMessages int
	TotalWords    int

	MessagesPerSender map[string]int
	WordsPerSender    map[string]int

	// ReactionsReceived tallies by the sender of the reacted-to message;
	// ReactionsGiven tallies by the reacting actor.
	ReactionsReceived map[string]int
	ReactionsGiven    map[string]int
}

// Collect reads the whole store and computes the report.
func Collect(ctx context.Context, s store.Store) (*Report, error) {
	msgs, err := s.MessagesBetween(ctx, 0, math.MaxInt64)
	if err != nil {
		return nil, fmt.Errorf("reading messages: %w", err)
	}
	reactions, err := s.ReactionsWithActors(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading reactions: %w", err)
	}

	r := &Report{
		MessagesPerSender: make(map[string]int),
		WordsPerSender:    make(map[string]int),
		ReactionsReceived: make(map[string]int),
		ReactionsGiven:    make(map[string]int),
	}

	senderByMessage := make(map[int64]string, len(msgs))
	for _, m := range msgs {
		r.TotalMessages++
		r.MessagesPerSender[m.Sender]++
		senderByMessage[m.ID] = m.Sender
		if m.HasContent {
			n := normalize.WordCount(m.Content)
			r.TotalWords += n
			r.WordsPerSender[m.Sender] += n
		}
	}

	for _, re := range reactions {
		r.ReactionsGiven[re.Actor]++
		if sender, ok := senderByMessage[re.MessageID]; ok {
			r.ReactionsReceived[sender]++
		}
	}

	return r, nil
}

// Format renders the report for CLI output, senders sorted by word count.
func Format(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Messages: %d\n", r.TotalMessages)
	fmt.Fprintf(&b, "Words:    %d\n", r.TotalWords)

	senders := make([]string, 0, len(r.MessagesPerSender))
	for s := range r.MessagesPerSender {
		senders = append(senders, s)
	}
	sort.Slice(senders, func(i, j int) bool {
		if r.WordsPerSender[senders[i]] != r.WordsPerSender[senders[j]] {
			return r.WordsPerSender[senders[i]] > r.WordsPerSender[senders[j]]
		}
		return senders[i] < senders[j]
	})

	for _, s := range senders {
		fmt.Fprintf(&b, "  %-24s %5d messages  %6d words  %4d reactions received  %4d given\n",
			s, r.MessagesPerSender[s], r.WordsPerSender[s], r.ReactionsReceived[s], r.ReactionsGiven[s])
	}

	return b.String()
}
