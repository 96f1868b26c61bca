package prompt_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/petasbytes/mindbuddy/profile"
	"github.com/petasbytes/mindbuddy/prompt"
)

func alex() profile.Profile {
	return profile.Profile{
		Name:      "Alex",
		Pronouns:  "she/her",
		Style:     "neil",
		CoreFacts: []profile.Fact{{Text: "works as a nurse"}},
	}
}

func TestResolveStyle_KnownAndFallback(t *testing.T) {
	cases := []struct {
		in   string
		want prompt.Style
	}{
		{"mom", prompt.StyleMom},
		{"  NEIL \n", prompt.StyleNeil},
		{"Middle", prompt.StyleMiddle},
		{"", prompt.StyleMiddle},
		{"drill-sergeant", prompt.StyleMiddle},
	}
	for _, tc := range cases {
		if got := prompt.ParseStyle(tc.in); got != tc.want {
			t.Fatalf("ParseStyle(%q): got %q want %q", tc.in, got, tc.want)
		}
		if prompt.ResolveStyle(tc.in) != prompt.ResolveStyle(string(tc.want)) {
			t.Fatalf("ResolveStyle(%q) did not match %q", tc.in, tc.want)
		}
		if prompt.ResolveStyle(tc.in) != prompt.ResolveStyle(tc.in) {
			t.Fatalf("ResolveStyle(%q) is not idempotent", tc.in)
		}
	}
}

func TestResolveStyle_EveryStyleNonEmptyAndDistinct(t *testing.T) {
	seen := map[string]prompt.Style{}
	for _, s := range prompt.Styles() {
		text := prompt.ResolveStyle(string(s))
		if strings.TrimSpace(text) == "" {
			t.Fatalf("style %q has empty instruction", s)
		}
		if other, dup := seen[text]; dup {
			t.Fatalf("styles %q and %q share an instruction", s, other)
		}
		seen[text] = s
	}
}

func TestAssemble_AlexScenario(t *testing.T) {
	p := alex()
	out, err := prompt.Assemble(p, prompt.ResolveStyle(p.Style))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	for _, want := range []string{"Alex", "she/her", "- works as a nurse", "Challenge the user's thinking"} {
		if !strings.Contains(out, want) {
			t.Fatalf("prompt missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, prompt.CrisisSentinel); n != 1 {
		t.Fatalf("expected sentinel exactly once, found %d", n)
	}
	if strings.Contains(out, "{{") || strings.Contains(out, "<no value>") {
		t.Fatalf("unresolved placeholder in prompt:\n%s", out)
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	p := alex()
	style := prompt.ResolveStyle("neil")
	a, err := prompt.Assemble(p, style)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	b, err := prompt.Assemble(p, style)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if a != b {
		t.Fatal("identical inputs produced different prompts")
	}
}

func TestAssemble_SensitiveToEveryInput(t *testing.T) {
	base, err := prompt.Assemble(alex(), prompt.ResolveStyle("neil"))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	variants := map[string]func() (profile.Profile, string){
		"name": func() (profile.Profile, string) {
			p := alex()
			p.Name = "Jo"
			return p, prompt.ResolveStyle("neil")
		},
		"pronouns": func() (profile.Profile, string) {
			p := alex()
			p.Pronouns = "they/them"
			return p, prompt.ResolveStyle("neil")
		},
		"core_facts": func() (profile.Profile, string) {
			p := alex()
			p.CoreFacts = append(p.CoreFacts, profile.Fact{Text: "runs marathons"})
			return p, prompt.ResolveStyle("neil")
		},
		"style": func() (profile.Profile, string) {
			return alex(), prompt.ResolveStyle("mom")
		},
	}
	for name, mk := range variants {
		p, s := mk()
		out, err := prompt.Assemble(p, s)
		if err != nil {
			t.Fatalf("%s: assemble: %v", name, err)
		}
		if out == base {
			t.Fatalf("changing %s did not change the prompt", name)
		}
	}
}

func TestAssemble_FactsOnePerLineInOrder(t *testing.T) {
	p := alex()
	p.CoreFacts = []profile.Fact{{Text: "first"}, {Text: "second"}, {Text: "third"}}
	out, err := prompt.Assemble(p, prompt.ResolveStyle(""))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !strings.Contains(out, "- first\n- second\n- third\n") {
		t.Fatalf("facts not rendered one per line in order:\n%s", out)
	}
}

func TestAssemble_FailsLoudlyOnMissingFields(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*profile.Profile)
		field string
	}{
		{"blank name", func(p *profile.Profile) { p.Name = "  " }, "name"},
		{"blank pronouns", func(p *profile.Profile) { p.Pronouns = "" }, "pronouns"},
		{"nil facts", func(p *profile.Profile) { p.CoreFacts = nil }, "core_facts"},
		{"blank fact", func(p *profile.Profile) { p.CoreFacts = []profile.Fact{{Text: " "}} }, "core_facts[0]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := alex()
			tc.edit(&p)
			out, err := prompt.Assemble(p, prompt.ResolveStyle("neil"))
			if !errors.Is(err, prompt.ErrTemplateRender) {
				t.Fatalf("expected ErrTemplateRender, got %v", err)
			}
			var re *prompt.TemplateRenderError
			if !errors.As(err, &re) || re.Field != tc.field {
				t.Fatalf("expected field %q, got %v", tc.field, err)
			}
			if out != "" {
				t.Fatalf("expected no output on failure, got %q", out)
			}
		})
	}
}

func TestAssemble_UserTextIsNotTemplated(t *testing.T) {
	p := alex()
	p.Name = "{{.name}}"
	p.CoreFacts = []profile.Fact{{Text: "writes Go templates like {{ .Field }} for fun"}}

	out, err := prompt.Assemble(p, prompt.ResolveStyle(p.Style))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !strings.Contains(out, "{{.name}}") || !strings.Contains(out, "- writes Go templates like {{ .Field }} for fun") {
		t.Fatalf("user text was altered:\n%s", out)
	}
	if strings.Count(out, prompt.CrisisSentinel) != 1 {
		t.Fatal("expected the crisis sentinel exactly once")
	}
}

func TestIsCrisisHandoff(t *testing.T) {
	if !prompt.IsCrisisHandoff(prompt.CrisisSentinel) {
		t.Fatal("exact sentinel not recognised")
	}
	if !prompt.IsCrisisHandoff("  " + prompt.CrisisSentinel + "\n") {
		t.Fatal("sentinel with surrounding whitespace not recognised")
	}
	if prompt.IsCrisisHandoff("I hear you. " + prompt.CrisisSentinel) {
		t.Fatal("sentinel embedded in other text must not match")
	}
}
