package command

import (
	"context"
	"errors"

	"github.com/Belphemur/BangumiBridge/internal/apperrors"
	"github.com/Belphemur/BangumiBridge/internal/client"
	"github.com/Belphemur/BangumiBridge/internal/models"
)

// fakeClient answers from in-memory data. Unset data behaves like a remote without matches.
type fakeClient struct {
	subjects    map[int]models.SeriesSummary
	calendar    []models.CalendarDay
	calendarErr error
	search      *models.Page[models.SeriesSummary]
	searchErr   error
	episodes    *models.Page[models.EpisodeSummary]

	searchCalls []searchCall
}

type searchCall struct {
	keyword        string
	page, pageSize int
}

func (f *fakeClient) GetCalendar(context.Context) ([]models.CalendarDay, error) {
	return f.calendar, f.calendarErr
}

func (f *fakeClient) GetSubject(_ context.Context, subjectID int) (*models.SeriesSummary, error) {
	subject, ok := f.subjects[subjectID]
	if !ok {
		return nil, apperrors.NewSubjectNotFoundError(subjectID)
	}
	return &subject, nil
}

func (f *fakeClient) GetSubjects(ctx context.Context, subjectIDs []int) []client.SubjectResult {
	results := make([]client.SubjectResult, len(subjectIDs))
	for i, id := range subjectIDs {
		subject, err := f.GetSubject(ctx, id)
		results[i] = client.SubjectResult{SubjectID: id, Subject: subject, Err: err}
	}
	return results
}

func (f *fakeClient) GetEpisodes(_ context.Context, subjectID, page, pageSize int) (*models.Page[models.EpisodeSummary], error) {
	if f.episodes == nil {
		return nil, apperrors.NewSubjectNotFoundError(subjectID)
	}
	return f.episodes, nil
}

func (f *fakeClient) SearchSubjects(_ context.Context, keyword string, page, pageSize int) (*models.Page[models.SeriesSummary], error) {
	f.searchCalls = append(f.searchCalls, searchCall{keyword: keyword, page: page, pageSize: pageSize})
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.search == nil {
		return &models.Page[models.SeriesSummary]{Items: []models.SeriesSummary{}, Page: page, PageSize: pageSize}, nil
	}
	return f.search, nil
}

func (f *fakeClient) DownloadPoster(context.Context, string) (*models.Poster, error) {
	return nil, errors.New("not used by commands")
}

func (f *fakeClient) Close() error {
	return nil
}
