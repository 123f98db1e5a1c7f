package interaction

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/metrics"
	"github.com/google/uuid"
)

// DefaultTimeout is how long a confirmation stays answerable.
const DefaultTimeout = 30 * time.Second

// Action ids offered by a confirmation.
const (
	ActionYes    = "yes"
	ActionNo     = "no"
	ActionCancel = "cancel"
)

// Decision is the single outcome of a confirmation.
type Decision int

const (
	DecisionAccepted Decision = iota
	DecisionRejected
	DecisionTimedOut
	DecisionCanceled
)

func (d Decision) String() string {
	switch d {
	case DecisionAccepted:
		return "accepted"
	case DecisionRejected:
		return "rejected"
	case DecisionTimedOut:
		return "timed_out"
	default:
		return "canceled"
	}
}

// Prompt describes what the human is asked to confirm.
type Prompt struct {
	Summary  string
	ImageURL string
	Timeout  time.Duration // DefaultTimeout when zero
}

// Confirmation is a single-use question with a bounded answer window.
// It must be consumed on every path, typically with a deferred Consume.
type Confirmation struct {
	channel  Channel
	groupID  string
	timeout  time.Duration
	openErr  error
	awaited  bool
	decision Decision

	consumeOnce sync.Once
	consumeErr  error
}

// NewGroupID returns a unique, time-ordered group id.
func NewGroupID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Open sends the prompt: the summary, the image when set, and a group offering
// yes, no and cancel plus the answer window. The returned Confirmation is never nil;
// when sending failed, err is set and Await resolves to DecisionCanceled.
func Open(ctx context.Context, ch Channel, prompt Prompt) (*Confirmation, error) {
	logger := config.GetLogger()

	timeout := prompt.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Confirmation{
		channel: ch,
		groupID: NewGroupID(),
		timeout: timeout,
	}

	messages := []Message{Text{Content: prompt.Summary}}
	if prompt.ImageURL != "" {
		messages = append(messages, NetworkImage{URL: prompt.ImageURL})
	}
	messages = append(messages, ConsumableGroup{
		ID: c.groupID,
		Items: []Message{
			Action{ID: ActionYes, Label: "Yes"},
			Action{ID: ActionNo, Label: "No"},
			Action{ID: ActionCancel, Label: "Cancel"},
			Timeout{Ms: timeout.Milliseconds()},
		},
	})

	if err := ch.Send(ctx, messages...); err != nil {
		logger.Warn().Err(err).Str("groupID", c.groupID).Msg("Failed to send confirmation prompt")
		c.openErr = err
		return c, err
	}

	logger.Debug().Str("groupID", c.groupID).Dur("timeout", timeout).Msg("Confirmation prompted")
	return c, nil
}

// GroupID returns the id of the prompt group.
func (c *Confirmation) GroupID() string {
	return c.groupID
}

// Await waits for the one reply that decides the confirmation. Replies for other
// groups are ignored without extending the window. Errors resolve to DecisionCanceled.
// Later calls return the first decision.
func (c *Confirmation) Await(ctx context.Context) Decision {
	if c.awaited {
		return c.decision
	}
	c.decision = c.await(ctx)
	c.awaited = true

	logger := config.GetLogger()
	logger.Info().Str("groupID", c.groupID).Str("decision", c.decision.String()).Msg("Confirmation resolved")
	metrics.ConfirmationsTotal.WithLabelValues(c.decision.String()).Inc()
	return c.decision
}

func (c *Confirmation) await(ctx context.Context) Decision {
	logger := config.GetLogger()
	if c.openErr != nil {
		return DecisionCanceled
	}

	deadline := time.Now().Add(c.timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return DecisionTimedOut
		}

		reply, err := c.channel.Receive(ctx, remaining)
		switch {
		case errors.Is(err, ErrReceiveTimeout):
			return DecisionTimedOut
		case err != nil:
			logger.Debug().Err(err).Str("groupID", c.groupID).Msg("Confirmation wait interrupted")
			return DecisionCanceled
		}

		switch reply.Kind {
		case ReplyAction:
			if reply.GroupID != c.groupID {
				logger.Debug().Str("groupID", c.groupID).Str("staleGroupID", reply.GroupID).Msg("Ignoring reply for another group")
				continue
			}
			if reply.ActionID == ActionYes {
				return DecisionAccepted
			}
			return DecisionRejected
		case ReplyText:
			if reply.IsAffirmative() {
				return DecisionAccepted
			}
			return DecisionRejected
		default:
			return DecisionRejected
		}
	}
}

// Consume retires the prompt group. Only the first call sends anything.
func (c *Confirmation) Consume(ctx context.Context) error {
	c.consumeOnce.Do(func() {
		c.consumeErr = c.channel.Send(ctx, Consumed{ID: c.groupID})
		if c.consumeErr != nil {
			logger := config.GetLogger()
			logger.Warn().Err(c.consumeErr).Str("groupID", c.groupID).Msg("Failed to consume confirmation group")
		}
	})
	return c.consumeErr
}

// Progress is a pending indicator shown while a long step runs.
type Progress struct {
	channel     Channel
	groupID     string
	consumeOnce sync.Once
}

// ShowProgress sends a group holding text and a pending indicator.
// Done must be called to retire it.
func ShowProgress(ctx context.Context, ch Channel, text string) *Progress {
	p := &Progress{channel: ch, groupID: NewGroupID()}
	if err := ch.Send(ctx, ConsumableGroup{ID: p.groupID, Items: []Message{Text{Content: text}, Pending{}}}); err != nil {
		logger := config.GetLogger()
		logger.Warn().Err(err).Str("groupID", p.groupID).Msg("Failed to send progress indicator")
	}
	return p
}

// Done retires the progress group once.
func (p *Progress) Done(ctx context.Context) {
	p.consumeOnce.Do(func() {
		_ = p.channel.Send(ctx, Consumed{ID: p.groupID})
	})
}
