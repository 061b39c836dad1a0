package service

import (
	"strings"
	"unicode"

	"github.com/trendit/collector-go/internal/core"
)

// LexiconScorer scores text by counting weighted lexicon hits and normalizing
// to [-1, 1]. It is a deliberately small, dependency-free model; the
// SentimentScorer port allows swapping in a real one without touching the
// pipeline.
type LexiconScorer struct{}

// NewLexiconScorer creates a new LexiconScorer.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{}
}

var sentimentLexicon = map[string]float64{
	"good": 1, "great": 2, "excellent": 3, "amazing": 3, "awesome": 3,
	"love": 2, "loved": 2, "best": 2, "better": 1, "nice": 1,
	"helpful": 1, "useful": 1, "fantastic": 3, "wonderful": 3,
	"happy": 2, "perfect": 3, "win": 1, "winning": 1, "impressive": 2,
	"recommend": 1, "enjoy": 1, "enjoyed": 1, "solid": 1, "works": 1,

	"bad": -1, "terrible": -3, "awful": -3, "horrible": -3,
	"hate": -2, "hated": -2, "worst": -2, "worse": -1, "broken": -2,
	"useless": -2, "garbage": -3, "trash": -3, "scam": -3,
	"sad": -2, "angry": -2, "annoying": -2, "fail": -1, "failed": -1,
	"disappointing": -2, "disappointed": -2, "bug": -1, "buggy": -2,
	"slow": -1, "crash": -2, "crashes": -2, "wrong": -1,
}

// Score implements core.SentimentScorer. ok is false when the input has no
// word tokens at all, which analytics counts as unscored.
func (s *LexiconScorer) Score(text string) (float64, bool) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	if len(words) == 0 {
		return 0, false
	}

	var sum float64
	negated := false
	for _, w := range words {
		if w == "not" || w == "no" || w == "never" || strings.HasSuffix(w, "n't") {
			negated = true
			continue
		}
		weight, hit := sentimentLexicon[w]
		if hit {
			if negated {
				weight = -weight
			}
			sum += weight
		}
		negated = false
	}

	// Normalize by token count so long neutral text stays near zero.
	score := sum / float64(len(words)) * 4
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score, true
}

var _ core.SentimentScorer = (*LexiconScorer)(nil)
