package profile

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON Schema of the profile file, indented for display.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
	}
	s := r.Reflect(&Profile{})
	s.Title = "MindBuddy profile"
	return json.MarshalIndent(s, "", "  ")
}
