package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Belphemur/BangumiBridge/internal/client"
	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/interaction"
	"github.com/spf13/pflag"
)

func (d *Dispatcher) episodesHandler() *handler {
	return &handler{
		name:        "episodes",
		aliases:     []string{"e"},
		usage:       "<id> [options]",
		description: "list episodes of a subject in Bangumi",
		flags: func(fs *pflag.FlagSet) {
			fs.IntP("page", "p", 0, "Page number, starting at 0")
			fs.IntP("size", "s", client.DefaultEpisodePageSize, "Page size")
		},
		run: func(ctx context.Context, s Session, fs *pflag.FlagSet) error {
			if fs.NArg() != 1 {
				return errors.New("missing required argument 'id'")
			}
			page, _ := fs.GetInt("page")
			size, _ := fs.GetInt("size")
			d.episodes(ctx, s, fs.Arg(0), page, size)
			return nil
		},
	}
}

func (d *Dispatcher) episodes(ctx context.Context, s Session, rawID string, page, size int) {
	logger := config.GetLogger()
	failed := interaction.Text{Content: fmt.Sprintf("Cannot list episodes of subject '%s'", rawID), Color: interaction.ColorError}

	subjectID, err := strconv.Atoi(rawID)
	if err != nil {
		d.send(ctx, s, failed)
		return
	}

	result, err := d.client.GetEpisodes(ctx, subjectID, page, size)
	if err != nil {
		logger.Warn().Err(err).Int("subjectID", subjectID).Msg("Episode listing failed")
		d.send(ctx, s, failed)
		return
	}

	header := fmt.Sprintf("Episodes of subject %d , total %d items", subjectID, result.Total)
	if len(result.Items) == 0 {
		d.send(ctx, s, interaction.Text{Content: header, Color: interaction.ColorInfo})
		return
	}

	messages := []interaction.Message{interaction.Text{Content: header + "\n", Color: interaction.ColorInfo}}
	for _, episode := range result.Items {
		line := fmt.Sprintf("%s\t%s", episode.No, episode.Title)
		if episode.PubAt != nil {
			line += "\t" + episode.PubAt.Format(time.DateOnly)
		}
		messages = append(messages, interaction.Text{Content: line})
	}
	d.send(ctx, s, messages...)
}
