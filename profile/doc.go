// Package profile loads the static user profile that personalises the
// system prompt.
//
// A profile file is user-owned data: JSON (profile.json) or YAML with the
// fields name, pronouns, style and core_facts. It is read once at startup
// and treated as immutable for the rest of the process.
package profile
