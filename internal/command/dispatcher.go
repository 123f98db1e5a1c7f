package command

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Belphemur/BangumiBridge/internal/client"
	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/importer"
	"github.com/Belphemur/BangumiBridge/internal/interaction"
	"github.com/Belphemur/BangumiBridge/internal/models"
	"github.com/spf13/pflag"
)

// SeriesImporter runs the import pipeline for an accepted subject.
type SeriesImporter interface {
	Import(ctx context.Context, req importer.Request) (*models.Series, error)
}

// Session is the conversation a command runs in.
type Session struct {
	Channel interaction.Channel
	UserID  int64
}

type handler struct {
	name        string
	aliases     []string
	usage       string
	description string
	flags       func(fs *pflag.FlagSet)
	run         func(ctx context.Context, s Session, fs *pflag.FlagSet) error
}

// Dispatcher routes "bangumi ..." / "bgm ..." lines to their command.
type Dispatcher struct {
	client         client.Client
	importer       SeriesImporter
	now            func() time.Time
	confirmTimeout time.Duration
	handlers       []*handler
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock replaces time.Now, used to pick today's calendar day.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithConfirmTimeout sets how long an add confirmation waits for an answer.
func WithConfirmTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.confirmTimeout = timeout }
}

// NewDispatcher creates a dispatcher with every Bangumi command registered.
func NewDispatcher(c client.Client, im SeriesImporter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:         c,
		importer:       im,
		now:            time.Now,
		confirmTimeout: interaction.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.handlers = []*handler{
		d.addHandler(),
		d.calendarHandler(),
		d.searchHandler(),
		d.episodesHandler(),
		d.infoHandler(),
	}
	return d
}

// IsCommand reports whether line is addressed to this dispatcher.
func IsCommand(line string) bool {
	args := splitArgs(line)
	return len(args) > 0 && isRoot(args[0])
}

func isRoot(word string) bool {
	switch strings.ToLower(word) {
	case "bangumi", "bgm":
		return true
	}
	return false
}

// Dispatch runs the command in line. It returns false when line is not a Bangumi command.
// Failures are reported to the session, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, s Session, line string) bool {
	logger := config.GetLogger()

	args := splitArgs(line)
	if len(args) == 0 || !isRoot(args[0]) {
		return false
	}
	args = args[1:]

	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		d.send(ctx, s, interaction.Text{Content: d.helpText()})
		return true
	}

	h := d.lookup(args[0])
	if h == nil {
		d.send(ctx, s,
			interaction.Text{Content: fmt.Sprintf("Unknown command '%s'", args[0]), Color: interaction.ColorError},
			interaction.Text{Content: d.helpText()},
		)
		return true
	}

	fs := pflag.NewFlagSet(h.name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(true)
	if h.flags != nil {
		h.flags(fs)
	}
	if err := fs.Parse(args[1:]); err != nil {
		if err == pflag.ErrHelp {
			d.send(ctx, s, interaction.Text{Content: h.helpText(fs)})
			return true
		}
		d.send(ctx, s,
			interaction.Text{Content: err.Error(), Color: interaction.ColorError},
			interaction.Text{Content: h.helpText(fs)},
		)
		return true
	}

	logger.Info().Str("command", h.name).Strs("args", fs.Args()).Int64("userID", s.UserID).Msg("Running command")
	if err := h.run(ctx, s, fs); err != nil {
		d.send(ctx, s,
			interaction.Text{Content: err.Error(), Color: interaction.ColorError},
			interaction.Text{Content: h.helpText(fs)},
		)
	}
	return true
}

func (d *Dispatcher) lookup(name string) *handler {
	name = strings.ToLower(name)
	for _, h := range d.handlers {
		if h.name == name {
			return h
		}
		for _, alias := range h.aliases {
			if alias == name {
				return h
			}
		}
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, s Session, messages ...interaction.Message) {
	if err := s.Channel.Send(ctx, messages...); err != nil {
		logger := config.GetLogger()
		logger.Warn().Err(err).Int64("userID", s.UserID).Msg("Failed to send command output")
	}
}

func (d *Dispatcher) helpText() string {
	var sb strings.Builder
	sb.WriteString("Usage: bangumi|bgm <command> [options]\n\nBangumi support\n\nCommands:\n")
	for _, h := range d.handlers {
		names := append([]string{h.name}, h.aliases...)
		fmt.Fprintf(&sb, "  %-28s %s\n", strings.Join(names, "|")+" "+h.usage, h.description)
	}
	sb.WriteString("  help                         display help for command\n")
	return sb.String()
}

func (h *handler) helpText(fs *pflag.FlagSet) string {
	text := fmt.Sprintf("Usage: bangumi %s %s\n\n%s\n", h.name, h.usage, h.description)
	if usages := fs.FlagUsages(); usages != "" {
		text += "\nOptions:\n" + usages
	}
	return text
}

// splitArgs splits a chat line on whitespace. Double quotes group words.
func splitArgs(line string) []string {
	var (
		args    []string
		current strings.Builder
		quoted  bool
		started bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case !quoted && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			if started {
				args = append(args, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if started {
		args = append(args, current.String())
	}
	return args
}
