package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrProfileNotFound is returned when the profile file does not exist.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrProfileMalformed is returned when required fields are missing or have the wrong shape.
	ErrProfileMalformed = errors.New("profile malformed")
)

// Fact is a single core fact about the user.
type Fact struct {
	Text string `json:"text" yaml:"text" jsonschema_description:"One short statement about the user."`
}

// Profile describes the user the assistant is talking to.
type Profile struct {
	Name      string `json:"name" yaml:"name" jsonschema_description:"How the assistant addresses the user."`
	Pronouns  string `json:"pronouns" yaml:"pronouns" jsonschema_description:"The user's pronouns, e.g. she/her."`
	Style     string `json:"style,omitempty" yaml:"style,omitempty" jsonschema:"enum=mom,enum=middle,enum=neil" jsonschema_description:"Conversation style; unknown values fall back to middle."`
	CoreFacts []Fact `json:"core_facts" yaml:"core_facts" jsonschema_description:"Ordered list of key facts about the user."`
}

// fileProfile mirrors Profile with pointer fields so absent keys can be told
// apart from empty values.
type fileProfile struct {
	Name      *string     `json:"name" yaml:"name"`
	Pronouns  *string     `json:"pronouns" yaml:"pronouns"`
	Style     *string     `json:"style" yaml:"style"`
	CoreFacts *[]fileFact `json:"core_facts" yaml:"core_facts"`
}

type fileFact struct {
	Text *string `json:"text" yaml:"text"`
}

// Load reads the profile at path. YAML is used for .yaml/.yml files and JSON
// for everything else.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, path)
		}
		return Profile{}, fmt.Errorf("reading profile %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON decodes a JSON profile document.
func ParseJSON(data []byte) (Profile, error) {
	var raw fileProfile
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrProfileMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Profile{}, fmt.Errorf("%w: trailing data after profile object", ErrProfileMalformed)
	}
	return raw.validate()
}

// ParseYAML decodes a YAML profile document.
func ParseYAML(data []byte) (Profile, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrProfileMalformed, err)
	}
	if err := checkScalarKinds(&root); err != nil {
		return Profile{}, err
	}

	var raw fileProfile
	if err := root.Decode(&raw); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrProfileMalformed, err)
	}
	return raw.validate()
}

// checkScalarKinds rejects non-string scalars for the text fields; yaml.v3
// would otherwise coerce e.g. `name: 42` into "42".
func checkScalarKinds(root *yaml.Node) error {
	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: top level must be a mapping", ErrProfileMalformed)
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, val := doc.Content[i].Value, doc.Content[i+1]
		switch key {
		case "name", "pronouns", "style":
			if val.Kind != yaml.ScalarNode || val.Tag != "!!str" {
				return fmt.Errorf("%w: %s must be a string", ErrProfileMalformed, key)
			}
		case "core_facts":
			if val.Kind != yaml.SequenceNode {
				return fmt.Errorf("%w: core_facts must be a list", ErrProfileMalformed)
			}
			for j, item := range val.Content {
				if item.Kind != yaml.MappingNode {
					return fmt.Errorf("%w: core_facts[%d] must be an object", ErrProfileMalformed, j)
				}
				for k := 0; k+1 < len(item.Content); k += 2 {
					if item.Content[k].Value == "text" && item.Content[k+1].Tag != "!!str" {
						return fmt.Errorf("%w: core_facts[%d].text must be a string", ErrProfileMalformed, j)
					}
				}
			}
		}
	}
	return nil
}

func (raw fileProfile) validate() (Profile, error) {
	var missing []string
	if raw.Name == nil {
		missing = append(missing, "name")
	}
	if raw.Pronouns == nil {
		missing = append(missing, "pronouns")
	}
	if raw.CoreFacts == nil {
		missing = append(missing, "core_facts")
	}
	if len(missing) > 0 {
		return Profile{}, fmt.Errorf("%w: missing required field(s): %s", ErrProfileMalformed, strings.Join(missing, ", "))
	}

	p := Profile{
		Name:      *raw.Name,
		Pronouns:  *raw.Pronouns,
		CoreFacts: make([]Fact, 0, len(*raw.CoreFacts)),
	}
	if raw.Style != nil {
		p.Style = *raw.Style
	}
	for i, f := range *raw.CoreFacts {
		if f.Text == nil {
			return Profile{}, fmt.Errorf("%w: core_facts[%d] has no text", ErrProfileMalformed, i)
		}
		p.CoreFacts = append(p.CoreFacts, Fact{Text: *f.Text})
	}
	return p, nil
}
