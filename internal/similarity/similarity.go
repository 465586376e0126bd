// Package similarity scores how well a track's metadata matches the user's
// transcribed input.
package similarity

import (
	"regexp"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// dice is a bigram Sørensen–Dice metric. The struct is stateless, so a single
// instance is safe for concurrent use.
var dice = metrics.NewSorensenDice()

var parenthesized = regexp.MustCompile(`\((.*?)\)`)

// normalize lower-cases the string and strips all whitespace so that word
// boundaries do not produce bigrams of their own.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

// Score returns the similarity coefficient in [0,1] between a reference field
// received from Spotify and the user's input. Identical strings score 1.0,
// completely disjoint strings score 0.0. Comparison is case-insensitive.
func Score(reference, input string) float64 {
	a, b := normalize(reference), normalize(input)

	// Equal strings always match, even when too short to form a bigram:
	// a one-letter title must still resolve against its own name.
	if a == b {
		return 1.0
	}
	if len(a) < 2 || len(b) < 2 {
		return 0.0
	}

	return strutil.Similarity(a, b, dice)
}

// RelaxedScore scores like Score but additionally evaluates the reference
// with any parenthesized substrings removed, returning the higher of the two
// coefficients. A track titled "Let Me Go (feat. Chad Kroeger)" is therefore
// also evaluated as "Let Me Go", so extra metadata in a title never depresses
// the match. RelaxedScore(r, i) >= Score(r, i) for all inputs.
func RelaxedScore(reference, input string) float64 {
	strict := Score(reference, input)

	stripped := parenthesized.ReplaceAllString(reference, "")
	if stripped == reference {
		return strict
	}

	if relaxed := Score(stripped, input); relaxed > strict {
		return relaxed
	}
	return strict
}
