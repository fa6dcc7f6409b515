package domain

import (
	"fmt"
	"strings"
)

// ModerationAction is what a moderator does to a post or comment.
type ModerationAction string

// Moderation actions.
//
// For posts: approve publishes and clears the flag, reject returns the post
// to draft, flag marks it for review, remove archives it.
// For comments: approve unhides, reject and flag hide, remove deletes.
const (
	ModerationApprove ModerationAction = "approve"
	ModerationReject  ModerationAction = "reject"
	ModerationFlag    ModerationAction = "flag"
	ModerationRemove  ModerationAction = "remove"
)

// ParseModerationAction converts s into a ModerationAction.
func ParseModerationAction(s string) (ModerationAction, error) {
	a := ModerationAction(strings.ToLower(s))
	switch a {
	case ModerationApprove, ModerationReject, ModerationFlag, ModerationRemove:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidModerationAction, s)
}
