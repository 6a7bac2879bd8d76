// internal/extract/extract.go
package extract

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind tags which record a payload targets.
type Kind string

const (
	KindNone     Kind = "none"
	KindMeal     Kind = "meal"
	KindExercise Kind = "exercise"
)

// Payload is a structured correction found inside a free-text AI reply.
// Values are per-unit; the reconciliation engine applies the multiplier.
type Payload struct {
	Kind       Kind
	MealID     int64
	ExerciseID int64
	Calories   float64
	Protein    float64
	Carbs      float64
	Fat        float64
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?.*?```")

// Reply scans an AI reply for an embedded correction payload. The model
// wraps payloads in code fences, inlines them mid-sentence, or omits them
// entirely, so every candidate JSON object in the text is tried in order
// and the first well-formed one wins. A reply with no parsable payload is
// conversational, not an error: the result is KindNone.
func Reply(text string) Payload {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		end := matchBrace(text, i)
		if end < 0 {
			continue
		}
		candidate := text[i : end+1]
		if p, ok := parseCandidate(candidate); ok {
			return p
		}
		// A rejected object may still hold the payload nested inside
		// (e.g. {"result": {...}}), so keep scanning from the next brace.
	}
	return Payload{Kind: KindNone}
}

// matchBrace returns the index of the brace closing the object opened at
// start, or -1 when the text ends first.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseCandidate(candidate string) (Payload, bool) {
	if !gjson.Valid(candidate) {
		return Payload{}, false
	}
	doc := gjson.Parse(candidate)

	calories := doc.Get("calories")
	if calories.Type != gjson.Number {
		return Payload{}, false
	}

	if mealID := doc.Get("mealId"); mealID.Type == gjson.Number {
		return Payload{
			Kind:     KindMeal,
			MealID:   mealID.Int(),
			Calories: calories.Float(),
			Protein:  doc.Get("protein").Float(),
			Carbs:    doc.Get("carbs").Float(),
			Fat:      doc.Get("fat").Float(),
		}, true
	}

	if exerciseID := doc.Get("exerciseId"); exerciseID.Type == gjson.Number {
		return Payload{
			Kind:       KindExercise,
			ExerciseID: exerciseID.Int(),
			Calories:   calories.Float(),
		}, true
	}

	return Payload{}, false
}

// StripPayload removes fenced payload blocks from a reply so only the
// conversational text reaches the user.
func StripPayload(text string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
}
