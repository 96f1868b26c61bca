// Package prompt builds the MindBuddy system prompt.
//
// The prompt is rendered once per session from the user profile, the
// resolved conversation style and the crisis hand-off sentinel. Conversation
// history is not part of it; history is sent alongside on every call.
package prompt
