// Package transcript cleans raw extracted chat text before chunking.
//
// The normaliser removes obvious noise and structure symbols while
// preserving chat semantics (punctuation, emojis), and inserts line breaks
// at probable speaker-turn boundaries so the model sees one turn per line
// where the source allows it. No model is involved.
package transcript

import (
	"html"
	"regexp"
	"strings"
)

// Compiled once; Normalise is called per conversation.
var (
	// boilerplateRe matches non-content metadata fragments.
	boilerplateRe = regexp.MustCompile(`(?i)(conversation id|session id|chat transcript|internal participant(\(s\))?|bot/flow)\s*:?[^\n]*`)

	// urlRe matches inline URLs.
	urlRe = regexp.MustCompile(`https?://\S+`)

	// separatorRunRe matches decorative runs like "-----" or "====".
	separatorRunRe = regexp.MustCompile(`[-=_]{3,}`)

	// structureCharRe matches structural symbols that carry no dialogue.
	structureCharRe = regexp.MustCompile(`[<>\[\]|\\]`)

	// turnBreakRe matches sentence-final punctuation followed by a
	// name-like token with a reply delimiter: "since when? neha- today".
	turnBreakRe = regexp.MustCompile(`([.!?])[ \t]+([A-Za-z][a-z]+[-:])`)

	// speakerCueRe matches inline role cues that start a new turn.
	speakerCueRe = regexp.MustCompile(`(?i)[ \t]+((?:agent|user|customer|client|rep)\s*[:-])`)

	spaceRunRe   = regexp.MustCompile(`[ \t]{2,}`)
	newlineRunRe = regexp.MustCompile(`\n{2,}`)
	lineEdgeRe   = regexp.MustCompile(`[ \t]*\n[ \t]*`)
)

// Normalise cleans raw transcript text. It is pure and total: it never
// fails, empty or whitespace-only input yields "", and it is idempotent
// (Normalise(Normalise(x)) == Normalise(x)).
func Normalise(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	// Decode entities to a fixpoint: exports that passed through several
	// HTML layers arrive doubly escaped ("&amp;lt;"), and a single pass
	// would leave one level behind for the next call to decode.
	text := raw
	for i := 0; i < 10; i++ {
		decoded := html.UnescapeString(text)
		if decoded == text {
			break
		}
		text = decoded
	}

	// Unify line breaks and soft delimiters.
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "||", "\n")
	text = strings.ReplaceAll(text, "｜｜", "\n")
	text = strings.ReplaceAll(text, "\t", " ")

	// Drop non-content noise.
	text = boilerplateRe.ReplaceAllString(text, "")
	text = urlRe.ReplaceAllString(text, "")
	text = separatorRunRe.ReplaceAllString(text, " ")
	text = structureCharRe.ReplaceAllString(text, " ")

	// Insert breaks at probable speaker-turn boundaries.
	text = turnBreakRe.ReplaceAllString(text, "$1\n$2")
	text = speakerCueRe.ReplaceAllString(text, "\n$1")

	// Collapse leftover whitespace, keeping single newlines as boundaries.
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = lineEdgeRe.ReplaceAllString(text, "\n")
	text = newlineRunRe.ReplaceAllString(text, "\n")

	return strings.TrimSpace(text)
}
