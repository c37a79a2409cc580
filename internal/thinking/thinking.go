// Package thinking splits a model's output into its reasoning and its answer.
//
// The split is a text heuristic with three passes. Explicit delimiters are
// tried first in a fixed order, then a line scan for reasoning lead-ins, and
// when neither finds anything the whole text is the response. Classify is a
// pure function: the same text always yields the same Segmentation, so it is
// safe to re-run on every streamed update even though earlier splits may
// change as more text arrives.
package thinking

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Segmentation is the reasoning/answer split of one text
type Segmentation struct {
	Thinking string
	Response string
}

// HasThinking reports whether any reasoning was found
func (s Segmentation) HasThinking() bool {
	return s.Thinking != ""
}

// delimiter is one explicit reasoning marker. For lead-in phrases the
// reasoning runs up to a terminator that stays in the response.
type delimiter struct {
	name   string
	re     *regexp.Regexp
	leadIn bool
}

func tag(open, close string) delimiter {
	return delimiter{
		name: open,
		re:   regexp.MustCompile(`(?s)` + regexp.QuoteMeta(open) + `(.*?)` + regexp.QuoteMeta(close)),
	}
}

// Reasoning after a lead-in ends at a blank line, at a line starting with a
// capital letter, or at the end of the text.
func leadIn(phrase string) delimiter {
	return delimiter{
		name:   phrase,
		re:     regexp.MustCompile(`(?s)` + regexp.QuoteMeta(phrase) + `(.*?)(\n\n|\n[A-Z]|$)`),
		leadIn: true,
	}
}

// Order matters: the first delimiter found anywhere in the text wins.
var delimiters = []delimiter{
	tag("<thinking>", "</thinking>"),
	tag("<reasoning>", "</reasoning>"),
	tag("<thought>", "</thought>"),
	tag("<think>", "</think>"),
	tag("[thinking]", "[/thinking]"),
	tag("[reasoning]", "[/reasoning]"),
	leadIn("Let me think about this."),
	leadIn("First, let me analyze this."),
	leadIn("Let me break this down."),
}

// Indicators mark a line as the start of reasoning during the line scan.
// Matching is case-insensitive containment.
var Indicators = []string{
	"let me think",
	"first, let me",
	"let me analyze",
	"let me break this down",
	"i need to think",
	"let me consider",
	"thinking about this",
}

// substantialLen is the length above which a line after a reasoning lead-in
// is taken to be the answer.
const substantialLen = 20

// Classify splits text into thinking and response
func Classify(text string) Segmentation {
	if seg, ok := splitDelimited(text); ok {
		return seg
	}
	if seg, ok := scanLines(text); ok {
		return seg
	}
	return Segmentation{Response: text}
}

func splitDelimited(text string) (Segmentation, bool) {
	for _, d := range delimiters {
		if seg, ok := d.split(text); ok {
			return seg, true
		}
	}
	return Segmentation{}, false
}

// split removes every match of d from text. The inner texts, trimmed and
// joined by blank lines, become the thinking.
func (d delimiter) split(text string) (Segmentation, bool) {
	var (
		thoughts []string
		response strings.Builder
		pos      int
		matched  bool
	)
	for pos <= len(text) {
		loc := d.re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		matched = true

		start, end := pos+loc[0], pos+loc[1]
		if d.leadIn {
			end = pos + loc[4]
		}
		response.WriteString(text[pos:start])
		if inner := strings.TrimSpace(text[pos+loc[2] : pos+loc[3]]); inner != "" {
			thoughts = append(thoughts, inner)
		}
		pos = end
	}
	if !matched {
		return Segmentation{}, false
	}
	response.WriteString(text[pos:])

	return Segmentation{
		Thinking: strings.Join(thoughts, "\n\n"),
		Response: strings.TrimSpace(response.String()),
	}, true
}

func scanLines(text string) (Segmentation, bool) {
	var reasoning, response []string
	started := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case !started && isIndicator(line):
			started = true
			reasoning = append(reasoning, line)
		case started && line != "":
			// Short lines straight after a lead-in are still reasoning.
			if utf8.RuneCountInString(line) > substantialLen || len(response) > 0 {
				response = append(response, line)
			} else {
				reasoning = append(reasoning, line)
			}
		default:
			response = append(response, line)
		}
	}

	seg := Segmentation{
		Thinking: strings.TrimSpace(strings.Join(reasoning, "\n")),
		Response: strings.TrimSpace(strings.Join(response, "\n")),
	}
	if seg.Thinking == "" || seg.Response == "" {
		return Segmentation{}, false
	}
	return seg, true
}

func isIndicator(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range Indicators {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
