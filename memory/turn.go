package memory

import (
	"errors"
	"fmt"
)

// Role is the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrInvalidTurn is returned when a turn has an unknown role.
var ErrInvalidTurn = errors.New("invalid turn")

// Turn is one message in a conversation log. Turns are values and are never
// modified after they are appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserTurn returns a turn authored by the user.
func UserTurn(content string) Turn { return Turn{Role: RoleUser, Content: content} }

// AssistantTurn returns a turn authored by the assistant.
func AssistantTurn(content string) Turn { return Turn{Role: RoleAssistant, Content: content} }

// Validate checks the role.
func (t Turn) Validate() error {
	switch t.Role {
	case RoleUser, RoleAssistant:
		return nil
	}
	return fmt.Errorf("%w: unknown role %q", ErrInvalidTurn, t.Role)
}
