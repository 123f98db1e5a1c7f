package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Belphemur/BangumiBridge/internal/interaction"
	"github.com/spf13/pflag"
)

func (d *Dispatcher) infoHandler() *handler {
	return &handler{
		name:        "info",
		aliases:     []string{"i"},
		usage:       "<id...>",
		description: "show details of one or more subjects in Bangumi",
		run: func(ctx context.Context, s Session, fs *pflag.FlagSet) error {
			if fs.NArg() == 0 {
				return errors.New("missing required argument 'id'")
			}
			d.info(ctx, s, fs.Args())
			return nil
		},
	}
}

func (d *Dispatcher) info(ctx context.Context, s Session, rawIDs []string) {
	var (
		messages []interaction.Message
		ids      []int
	)
	for _, raw := range rawIDs {
		id, err := strconv.Atoi(raw)
		if err != nil {
			messages = append(messages, interaction.Text{Content: fmt.Sprintf("Bangumi subject '%s' not found", raw), Color: interaction.ColorError})
			continue
		}
		ids = append(ids, id)
	}

	for _, result := range d.client.GetSubjects(ctx, ids) {
		if result.Err != nil {
			messages = append(messages, interaction.Text{Content: fmt.Sprintf("Bangumi subject '%d' not found", result.SubjectID), Color: interaction.ColorError})
			continue
		}
		subject := result.Subject

		details := []string{fmt.Sprintf("Episodes: %d", subject.Count)}
		if subject.PubAt != nil {
			details = append(details, "Date: "+subject.PubAt.Format(time.DateOnly))
		}
		if len(subject.Tags) > 0 {
			details = append(details, "Tags: "+strings.Join(subject.Tags, ", "))
		}

		messages = append(messages, interaction.Text{Content: fmt.Sprintf("%s\t%d", subject.Name, subject.ID), Color: interaction.ColorInfo})
		if subject.PosterURL != "" {
			messages = append(messages, interaction.NetworkImage{URL: subject.PosterURL})
		}
		messages = append(messages, interaction.Text{Content: strings.Join(details, "  ")})
		if subject.Description != "" {
			messages = append(messages, interaction.Text{Content: subject.Description})
		}
		messages = append(messages, interaction.Text{Content: "\n"})
	}

	d.send(ctx, s, messages...)
}
