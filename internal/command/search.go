package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Belphemur/BangumiBridge/internal/client"
	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/interaction"
	"github.com/spf13/pflag"
)

func (d *Dispatcher) searchHandler() *handler {
	return &handler{
		name:        "search",
		aliases:     []string{"s"},
		usage:       "<keyword> [options]",
		description: "search anime in Bangumi",
		flags: func(fs *pflag.FlagSet) {
			fs.IntP("page", "p", 0, "Page number, starting at 0")
			fs.IntP("size", "s", client.DefaultSearchPageSize, "Page size")
		},
		run: func(ctx context.Context, s Session, fs *pflag.FlagSet) error {
			if fs.NArg() == 0 {
				return errors.New("missing required argument 'keyword'")
			}
			page, _ := fs.GetInt("page")
			size, _ := fs.GetInt("size")
			d.search(ctx, s, strings.Join(fs.Args(), " "), page, size)
			return nil
		},
	}
}

func (d *Dispatcher) search(ctx context.Context, s Session, keyword string, page, size int) {
	logger := config.GetLogger()

	result, err := d.client.SearchSubjects(ctx, keyword, page, size)
	if err != nil {
		logger.Warn().Err(err).Str("keyword", keyword).Msg("Search failed")
		d.send(ctx, s, interaction.Text{Content: fmt.Sprintf("Cannot find subjects by keyword: %s", keyword), Color: interaction.ColorError})
		return
	}

	if result.Total == 0 || len(result.Items) == 0 {
		d.send(ctx, s, interaction.Text{
			Content: fmt.Sprintf("Search results for keyword: %s , total %d items", keyword, result.Total),
			Color:   interaction.ColorInfo,
		})
		return
	}

	messages := []interaction.Message{interaction.Text{
		Content: fmt.Sprintf("Search results for keyword: %s , total %d items\n", keyword, result.Total),
		Color:   interaction.ColorInfo,
	}}
	for _, item := range result.Items {
		messages = append(messages, interaction.Text{Content: fmt.Sprintf("%s\t%d", item.Name, item.ID)})
	}
	d.send(ctx, s, messages...)
}
