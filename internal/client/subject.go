package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/Belphemur/BangumiBridge/internal/apperrors"
	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/models"
	"github.com/sourcegraph/conc/pool"
)

// GetSubject resolves one subject. Any non-success answer is reported as not found;
// checking whether the subject is a series is left to the caller.
func (c *client) GetSubject(ctx context.Context, subjectID int) (*models.SeriesSummary, error) {
	logger := config.GetLogger()
	logger.Debug().Int("subjectID", subjectID).Msg("Fetching subject")

	body, err := c.fetch(ctx, "subject", fmt.Sprintf("%s/v0/subjects/%d", c.baseURL, subjectID))
	if err != nil {
		var remoteErr *apperrors.ErrRemoteUnavailable
		if errors.As(err, &remoteErr) && remoteErr.StatusCode != 0 {
			logger.Debug().Int("subjectID", subjectID).Int("statusCode", remoteErr.StatusCode).Msg("Subject not found")
			return nil, apperrors.NewSubjectNotFoundError(subjectID)
		}
		return nil, err
	}

	subject, err := c.subjectParser.ParseOne(body)
	if err != nil {
		logger.Warn().Err(err).Int("subjectID", subjectID).Msg("Unreadable subject body")
		return nil, apperrors.NewSubjectNotFoundError(subjectID)
	}
	return &subject, nil
}

// GetSubjects resolves subjects with bounded parallelism.
func (c *client) GetSubjects(ctx context.Context, subjectIDs []int) []SubjectResult {
	results := make([]SubjectResult, len(subjectIDs))

	p := pool.New().WithContext(ctx).WithMaxGoroutines(c.maxConcurrency)
	for i, id := range subjectIDs {
		p.Go(func(ctx context.Context) error {
			subject, err := c.GetSubject(ctx, id)
			results[i] = SubjectResult{SubjectID: id, Subject: subject, Err: err}
			return nil
		})
	}
	_ = p.Wait()

	return results
}
