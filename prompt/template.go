package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/petasbytes/mindbuddy/profile"
)

// CrisisSentinel is the exact reply the model is instructed to produce when a
// message indicates imminent self-harm, suicidal ideation, or asks for medical
// or diagnostic advice. Callers may match on it to route the conversation.
const CrisisSentinel = "EMERGENCY: Please call a crisis helpline immediately."

// ErrTemplateRender is matched by every *TemplateRenderError.
var ErrTemplateRender = errors.New("template render failed")

// TemplateRenderError reports a placeholder that could not be substituted.
type TemplateRenderError struct {
	Field string
	Err   error
}

func (e *TemplateRenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render system prompt: %s: %v", e.Field, e.Err)
	}
	return "render system prompt: " + e.Field
}

func (e *TemplateRenderError) Unwrap() error { return e.Err }

func (e *TemplateRenderError) Is(target error) bool { return target == ErrTemplateRender }

const systemTemplate = `You are **MindBuddy**, a relaxed friend chatting with the user as if you're swapping messages over your phone or sharing a chill beer.

The user's name is {{.name}} and pronouns are {{.pronouns}}.

Here are some key facts about the user:
{{.core_facts}}

**Conversation style**
{{.style}}

**Tone**
- Write informal, first-person sentences with contractions.
- Keep replies to at most three short paragraphs; never use bullet or numbered lists in your replies.

**Boundaries**
- You are not a therapist and never claim clinical expertise.
- If the user mentions imminent self-harm, suicide, or asks for medical or diagnostic advice, respond **only** with the exact token: ` + "`{{.crisis_handoff}}`" + `

**Content Guidelines**
- Focus on listening and reflecting feelings; ask gentle follow-up questions instead of prescribing fixes.
- Do **not** offer cliché advice ("go for a walk", "deep breathing", etc.) **unless the user explicitly requests it**.
- Light humour is welcome when supportive, but never be sarcastic or dismissive.

**Meta**
- If unsure what the user means, ask a clarifying question rather than guessing.
`

var tmpl = template.Must(template.New("system").Option("missingkey=error").Parse(systemTemplate))

// Assemble renders the system prompt for p using the resolved style
// instruction. Output is deterministic for identical inputs.
func Assemble(p profile.Profile, styleInstruction string) (string, error) {
	data, err := templateData(p, styleInstruction)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", &TemplateRenderError{Field: "template", Err: err}
	}

	return buf.String(), nil
}

func templateData(p profile.Profile, styleInstruction string) (map[string]string, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, &TemplateRenderError{Field: "name", Err: errors.New("empty")}
	}
	if strings.TrimSpace(p.Pronouns) == "" {
		return nil, &TemplateRenderError{Field: "pronouns", Err: errors.New("empty")}
	}
	if p.CoreFacts == nil {
		return nil, &TemplateRenderError{Field: "core_facts", Err: errors.New("missing")}
	}
	if strings.TrimSpace(styleInstruction) == "" {
		return nil, &TemplateRenderError{Field: "style", Err: errors.New("empty")}
	}

	facts := make([]string, 0, len(p.CoreFacts))
	for i, f := range p.CoreFacts {
		text := strings.TrimSpace(f.Text)
		if text == "" {
			return nil, &TemplateRenderError{Field: fmt.Sprintf("core_facts[%d]", i), Err: errors.New("empty text")}
		}
		facts = append(facts, "- "+text)
	}

	return map[string]string{
		"name":           p.Name,
		"pronouns":       p.Pronouns,
		"core_facts":     strings.Join(facts, "\n"),
		"style":          strings.TrimSpace(styleInstruction),
		"crisis_handoff": CrisisSentinel,
	}, nil
}

// IsCrisisHandoff reports whether reply is the crisis sentinel, ignoring
// surrounding whitespace.
func IsCrisisHandoff(reply string) bool {
	return strings.TrimSpace(reply) == CrisisSentinel
}
