package prompt

import "strings"

// Style identifies a conversational style.
type Style string

const (
	StyleMom    Style = "mom"
	StyleMiddle Style = "middle"
	StyleNeil   Style = "neil"

	// DefaultStyle is used for any unrecognised style identifier.
	DefaultStyle = StyleMiddle
)

var styleInstructions = map[Style]string{
	StyleMom: `Be extremely supportive and take the user's side. Validate their feelings without question.
Use encouraging language and reassure them that their perspective is valid.
Avoid challenging their views or pointing out inconsistencies in their thinking.`,

	StyleMiddle: `Balance support with gentle nudges toward reflection.
Validate feelings while occasionally asking questions that prompt deeper thinking.
Offer a mix of support and mild challenge when appropriate.`,

	StyleNeil: `Challenge the user's thinking with thoughtful questions based on logic and reason.
Point out potential inconsistencies in their reasoning while maintaining respect.
Encourage scientific thinking and evidence-based perspectives.
Ask them to back up claims with evidence or to consider alternative viewpoints.`,
}

// ParseStyle normalises id (case and surrounding whitespace are ignored) and
// returns the matching style, or DefaultStyle when nothing matches.
func ParseStyle(id string) Style {
	s := Style(strings.ToLower(strings.TrimSpace(id)))
	if _, ok := styleInstructions[s]; ok {
		return s
	}
	return DefaultStyle
}

// ResolveStyle returns the behavioural instruction text for id. It never
// fails: unknown or empty identifiers resolve to the middle style.
func ResolveStyle(id string) string {
	return styleInstructions[ParseStyle(id)]
}

// Styles lists the known style identifiers.
func Styles() []Style {
	return []Style{StyleMom, StyleMiddle, StyleNeil}
}
