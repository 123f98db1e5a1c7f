package grpc

import (
	"context"
	"strconv"

	"github.com/Belphemur/BangumiBridge/internal/client"
	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/models"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/types/known/structpb"
)

// server implements CatalogServer on top of a Bangumi client.
type server struct {
	client client.Client
	logger zerolog.Logger
}

// NewServer creates a new catalog server instance
func NewServer(c client.Client) CatalogServer {
	return &server{
		client: c,
		logger: config.GetLogger(),
	}
}

type calendarResponse struct {
	Days []models.CalendarDay `json:"days"`
}

type subjectResponse struct {
	Subject *models.SeriesSummary `json:"subject"`
}

type batchResult struct {
	SubjectID int                   `json:"subject_id"`
	Subject   *models.SeriesSummary `json:"subject,omitempty"`
	Error     string                `json:"error,omitempty"`
}

type batchResponse struct {
	Results []batchResult `json:"results"`
}

// GetCalendar implements CatalogServer.GetCalendar
func (s *server) GetCalendar(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.logger.Debug().Msg("GetCalendar called")

	days, err := s.client.GetCalendar(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get calendar")
		return nil, toStatus(err, nil)
	}

	s.logger.Debug().Int("days", len(days)).Msg("GetCalendar completed")
	return toStruct(calendarResponse{Days: days})
}

// GetSubject implements CatalogServer.GetSubject
func (s *server) GetSubject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	subjectID, err := intField(req, "subject_id", 0)
	if err != nil {
		return nil, err
	}
	if subjectID == 0 {
		return nil, invalidArgument("subject_id", "is required")
	}
	s.logger.Debug().Int("subject_id", subjectID).Msg("GetSubject called")

	subject, err := s.client.GetSubject(ctx, subjectID)
	if err != nil {
		s.logger.Error().Err(err).Int("subject_id", subjectID).Msg("Failed to get subject")
		return nil, toStatus(err, map[string]string{"subject_id": strconv.Itoa(subjectID)})
	}

	return toStruct(subjectResponse{Subject: subject})
}

// BatchGetSubjects implements CatalogServer.BatchGetSubjects. Per-subject failures are
// reported inline; the call itself only fails on a malformed request.
func (s *server) BatchGetSubjects(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	subjectIDs, err := intListField(req, "subject_ids")
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Ints("subject_ids", subjectIDs).Msg("BatchGetSubjects called")

	results := s.client.GetSubjects(ctx, subjectIDs)
	out := batchResponse{Results: make([]batchResult, len(results))}
	failed := 0
	for i, r := range results {
		out.Results[i] = batchResult{SubjectID: r.SubjectID, Subject: r.Subject}
		if r.Err != nil {
			out.Results[i].Error = r.Err.Error()
			failed++
		}
	}

	s.logger.Debug().Int("count", len(results)).Int("failed", failed).Msg("BatchGetSubjects completed")
	return toStruct(out)
}

// ListEpisodes implements CatalogServer.ListEpisodes
func (s *server) ListEpisodes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	subjectID, err := intField(req, "subject_id", 0)
	if err != nil {
		return nil, err
	}
	if subjectID == 0 {
		return nil, invalidArgument("subject_id", "is required")
	}
	page, err := intField(req, "page", 0)
	if err != nil {
		return nil, err
	}
	pageSize, err := intField(req, "page_size", client.DefaultEpisodePageSize)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Int("subject_id", subjectID).Int("page", page).Int("page_size", pageSize).Msg("ListEpisodes called")

	episodes, err := s.client.GetEpisodes(ctx, subjectID, page, pageSize)
	if err != nil {
		s.logger.Error().Err(err).Int("subject_id", subjectID).Msg("Failed to list episodes")
		return nil, toStatus(err, map[string]string{"subject_id": strconv.Itoa(subjectID)})
	}

	return toStruct(episodes)
}

// SearchSubjects implements CatalogServer.SearchSubjects
func (s *server) SearchSubjects(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	keyword := stringField(req, "keyword")
	if keyword == "" {
		return nil, invalidArgument("keyword", "is required")
	}
	page, err := intField(req, "page", 0)
	if err != nil {
		return nil, err
	}
	pageSize, err := intField(req, "page_size", client.DefaultSearchPageSize)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("keyword", keyword).Int("page", page).Int("page_size", pageSize).Msg("SearchSubjects called")

	result, err := s.client.SearchSubjects(ctx, keyword, page, pageSize)
	if err != nil {
		s.logger.Error().Err(err).Str("keyword", keyword).Msg("Failed to search subjects")
		return nil, toStatus(err, map[string]string{"keyword": keyword})
	}

	s.logger.Debug().Str("keyword", keyword).Int("total", result.Total).Msg("SearchSubjects completed")
	return toStruct(result)
}
