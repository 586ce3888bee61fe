// Package quiz builds the daily three-option vocabulary question.
package quiz

import (
	"math/rand/v2"

	"github.com/smith3v/tg-daily-companion/pkg/content"
)

// MinEntries is the smallest vocabulary a quiz can be built from.
const MinEntries = 4

var Letters = [3]string{"A", "B", "C"}

type Question struct {
	Word    string
	Options [3]string
	// Correct is the letter of the option holding the word's translation.
	Correct string
}

// Build picks a target word and two distractor translations. It returns false when
// the vocabulary is too small or too repetitive to offer three distinct options.
func Build(vocab content.Vocabulary, rng *rand.Rand) (Question, bool) {
	if len(vocab) < MinEntries {
		return Question{}, false
	}

	target := rng.IntN(len(vocab))
	answer := vocab[target].Translation

	// Up to three other entries, uniformly without replacement.
	others := make([]int, 0, len(vocab)-1)
	for _, i := range rng.Perm(len(vocab)) {
		if i != target {
			others = append(others, i)
		}
	}
	seen := map[string]struct{}{answer: {}}
	distractors := make([]string, 0, 3)
	for _, i := range others[:min(3, len(others))] {
		translation := vocab[i].Translation
		if _, dup := seen[translation]; dup {
			continue
		}
		seen[translation] = struct{}{}
		distractors = append(distractors, translation)
	}
	if len(distractors) < 2 {
		return Question{}, false
	}

	options := [3]string{answer, distractors[0], distractors[1]}
	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	q := Question{Word: vocab[target].Word, Options: options}
	for i, option := range options {
		if option == answer {
			q.Correct = Letters[i]
			break
		}
	}
	return q, true
}
