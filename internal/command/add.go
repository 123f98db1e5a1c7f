package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/importer"
	"github.com/Belphemur/BangumiBridge/internal/interaction"
	"github.com/spf13/pflag"
)

func (d *Dispatcher) addHandler() *handler {
	return &handler{
		name:        "add",
		usage:       "<id>",
		description: "add an anime in Bangumi by subject ID",
		run: func(ctx context.Context, s Session, fs *pflag.FlagSet) error {
			if fs.NArg() != 1 {
				return errors.New("missing required argument 'id'")
			}
			d.add(ctx, s, fs.Arg(0))
			return nil
		},
	}
}

// add resolves the subject, asks for confirmation and imports it once accepted.
// Every failure ends with the same not-found message.
func (d *Dispatcher) add(ctx context.Context, s Session, rawID string) {
	logger := config.GetLogger()
	notFound := interaction.Text{Content: fmt.Sprintf("Bangumi subject '%s' not found", rawID), Color: interaction.ColorError}

	subjectID, err := strconv.Atoi(rawID)
	if err != nil {
		d.send(ctx, s, notFound)
		return
	}

	subject, err := d.client.GetSubject(ctx, subjectID)
	if err != nil {
		logger.Info().Err(err).Int("subjectID", subjectID).Msg("Subject lookup failed")
		d.send(ctx, s, notFound)
		return
	}
	if err := importer.CheckImportable(subject); err != nil {
		logger.Info().Err(err).Int("subjectID", subjectID).Msg("Subject is not a series")
		d.send(ctx, s, notFound)
		return
	}

	imageURL := subject.LargePoster
	if imageURL == "" {
		imageURL = subject.PosterURL
	}
	confirmation, err := interaction.Open(ctx, s.Channel, interaction.Prompt{
		Summary:  fmt.Sprintf("Find series '%s' , add it to the catalog now? (Y/n)", subject.Name),
		ImageURL: imageURL,
		Timeout:  d.confirmTimeout,
	})
	defer confirmation.Consume(ctx)
	if err != nil {
		logger.Warn().Err(err).Int("subjectID", subjectID).Msg("Could not prompt for confirmation")
	}

	decision := confirmation.Await(ctx)
	_ = confirmation.Consume(ctx)
	if decision != interaction.DecisionAccepted {
		d.send(ctx, s, interaction.Text{Content: fmt.Sprintf("Add series '%s' canceled", subject.Name)})
		return
	}

	progress := interaction.ShowProgress(ctx, s.Channel, fmt.Sprintf("Adding series '%s' ...", subject.Name))
	defer progress.Done(ctx)

	series, err := d.importer.Import(ctx, importer.Request{Subject: *subject, UserID: s.UserID})
	progress.Done(ctx)
	if err != nil {
		d.send(ctx, s, notFound)
		return
	}

	d.send(ctx, s,
		interaction.Text{Content: fmt.Sprintf("Series '%s' added", series.Name), Color: interaction.ColorSuccess},
		interaction.SeriesResource{Series: series},
	)
}
