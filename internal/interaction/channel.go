package interaction

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrReceiveTimeout is returned by Channel.Receive when no reply arrived within the timeout.
	ErrReceiveTimeout = errors.New("interaction: no reply before timeout")
	// ErrChannelClosed is returned once the peer is gone.
	ErrChannelClosed = errors.New("interaction: channel closed")
)

// ReplyKind tells how the human answered.
type ReplyKind string

const (
	ReplyText   ReplyKind = "text"
	ReplyAction ReplyKind = "action"
)

// Reply is one inbound answer. Action replies carry the group and action they refer to.
type Reply struct {
	Kind     ReplyKind `json:"type"`
	Content  string    `json:"content,omitempty"`
	GroupID  string    `json:"group_id,omitempty"`
	ActionID string    `json:"action_id,omitempty"`
}

// IsAffirmative reports whether a text reply reads as "yes".
func (r Reply) IsAffirmative() bool {
	switch strings.ToLower(strings.TrimSpace(r.Content)) {
	case "y", "yes":
		return true
	}
	return false
}

// Channel is a bidirectional conversation with one human.
type Channel interface {
	// Send delivers messages in order.
	Send(ctx context.Context, messages ...Message) error
	// Receive blocks for the next reply, at most timeout. It returns ErrReceiveTimeout
	// when the timeout elapses and ErrChannelClosed when the peer disconnected.
	Receive(ctx context.Context, timeout time.Duration) (Reply, error)
}
