package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/Belphemur/BangumiBridge/internal/interaction"
)

// ScriptStep is one scripted answer to a Receive call.
type ScriptStep struct {
	Reply interaction.Reply
	Err   error
	// ForOpenGroup fills Reply.GroupID with the id of the last group sent.
	ForOpenGroup bool
}

// TextReply scripts a free-text answer.
func TextReply(content string) ScriptStep {
	return ScriptStep{Reply: interaction.Reply{Kind: interaction.ReplyText, Content: content}}
}

// ActionReply scripts a click on actionID of the currently open group.
func ActionReply(actionID string) ScriptStep {
	return ScriptStep{Reply: interaction.Reply{Kind: interaction.ReplyAction, ActionID: actionID}, ForOpenGroup: true}
}

// NoReply scripts a Receive that runs into its timeout.
func NoReply() ScriptStep {
	return ScriptStep{Err: interaction.ErrReceiveTimeout}
}

// ScriptedChannel is an interaction.Channel answering Receive from a fixed script.
// Once the script is exhausted every Receive times out.
type ScriptedChannel struct {
	mu       sync.Mutex
	steps    []ScriptStep
	sent     []interaction.Message
	timeouts []time.Duration
	lastOpen string

	// SendErr, when set, is returned by every Send.
	SendErr error
}

// NewScriptedChannel creates a channel answering with steps in order.
func NewScriptedChannel(steps ...ScriptStep) *ScriptedChannel {
	return &ScriptedChannel{steps: steps}
}

func (c *ScriptedChannel) Send(_ context.Context, messages ...interaction.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SendErr != nil {
		return c.SendErr
	}
	for _, m := range messages {
		if group, ok := m.(interaction.ConsumableGroup); ok {
			c.lastOpen = group.ID
		}
	}
	c.sent = append(c.sent, messages...)
	return nil
}

func (c *ScriptedChannel) Receive(ctx context.Context, timeout time.Duration) (interaction.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.timeouts = append(c.timeouts, timeout)
	if err := ctx.Err(); err != nil {
		return interaction.Reply{}, err
	}
	if len(c.steps) == 0 {
		return interaction.Reply{}, interaction.ErrReceiveTimeout
	}

	step := c.steps[0]
	c.steps = c.steps[1:]
	if step.Err != nil {
		return interaction.Reply{}, step.Err
	}
	reply := step.Reply
	if step.ForOpenGroup {
		reply.GroupID = c.lastOpen
	}
	return reply, nil
}

// Sent returns a copy of every message sent so far.
func (c *ScriptedChannel) Sent() []interaction.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]interaction.Message(nil), c.sent...)
}

// Texts returns the top-level text messages sent so far.
func (c *ScriptedChannel) Texts() []interaction.Text {
	var texts []interaction.Text
	for _, m := range c.Sent() {
		if text, ok := m.(interaction.Text); ok {
			texts = append(texts, text)
		}
	}
	return texts
}

// Groups returns the consumable groups sent so far.
func (c *ScriptedChannel) Groups() []interaction.ConsumableGroup {
	var groups []interaction.ConsumableGroup
	for _, m := range c.Sent() {
		if group, ok := m.(interaction.ConsumableGroup); ok {
			groups = append(groups, group)
		}
	}
	return groups
}

// ConsumedCount returns how many Consumed messages were sent for groupID.
func (c *ScriptedChannel) ConsumedCount(groupID string) int {
	n := 0
	for _, m := range c.Sent() {
		if consumed, ok := m.(interaction.Consumed); ok && consumed.ID == groupID {
			n++
		}
	}
	return n
}

// ReceiveTimeouts returns the timeout passed to each Receive call.
func (c *ScriptedChannel) ReceiveTimeouts() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.timeouts...)
}
