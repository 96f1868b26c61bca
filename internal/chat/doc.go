// Package chat runs a single conversational turn end to end: it records the
// user's message, bounds the history sent to the model, calls the model with
// the assembled system prompt, records the reply and persists the store.
//
// An Engine is built once at startup and shared by the REPL and the HTTP
// server. Construction fails with ErrNotReady when a dependency is missing or
// the profile cannot be turned into a system prompt; there is no partially
// ready engine.
package chat
