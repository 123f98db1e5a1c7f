package command

import (
	"context"
	"fmt"

	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/interaction"
	"github.com/Belphemur/BangumiBridge/internal/models"
	"github.com/spf13/pflag"
)

func (d *Dispatcher) calendarHandler() *handler {
	return &handler{
		name:        "calendar",
		aliases:     []string{"c"},
		description: "show calendar in Bangumi",
		usage:       "[options]",
		flags: func(fs *pflag.FlagSet) {
			fs.BoolP("all", "a", false, "Show all weekday items")
		},
		run: func(ctx context.Context, s Session, fs *pflag.FlagSet) error {
			all, _ := fs.GetBool("all")
			d.calendar(ctx, s, all)
			return nil
		},
	}
}

func (d *Dispatcher) calendar(ctx context.Context, s Session, all bool) {
	logger := config.GetLogger()

	days, err := d.client.GetCalendar(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Calendar fetch failed")
		d.send(ctx, s, interaction.Text{Content: "Fetch Bangumi calendar failed", Color: interaction.ColorError})
		return
	}

	if !all {
		today := d.now().Weekday()
		filtered := days[:0:0]
		for _, day := range days {
			if day.Weekday == today {
				filtered = append(filtered, day)
			}
		}
		days = filtered
	}

	d.send(ctx, s, renderCalendar(days)...)
}

func renderCalendar(days []models.CalendarDay) []interaction.Message {
	messages := make([]interaction.Message, 0, len(days)*3)
	for _, day := range days {
		header := day.Name.CN
		if header == "" {
			header = day.Name.EN
		}
		messages = append(messages, interaction.Text{Content: header + "\n", Color: interaction.ColorInfo})
		if len(day.Items) == 0 {
			messages = append(messages, interaction.Text{Content: "No series scheduled\n"})
		}
		for _, item := range day.Items {
			messages = append(messages, interaction.Text{Content: fmt.Sprintf("%s\t%d", item.Name, item.ID)})
		}
		messages = append(messages, interaction.Text{Content: "\n"})
	}
	return messages
}
