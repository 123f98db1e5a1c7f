package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Belphemur/BangumiBridge/internal/apperrors"
	"github.com/Belphemur/BangumiBridge/internal/client"
	"github.com/Belphemur/BangumiBridge/internal/models"
)

// fakeClient implements client.Client for testing
type fakeClient struct {
	getCalendarFunc    func(ctx context.Context) ([]models.CalendarDay, error)
	getSubjectFunc     func(ctx context.Context, subjectID int) (*models.SeriesSummary, error)
	getEpisodesFunc    func(ctx context.Context, subjectID, page, pageSize int) (*models.Page[models.EpisodeSummary], error)
	searchSubjectsFunc func(ctx context.Context, keyword string, page, pageSize int) (*models.Page[models.SeriesSummary], error)
}

func (f *fakeClient) GetCalendar(ctx context.Context) ([]models.CalendarDay, error) {
	if f.getCalendarFunc != nil {
		return f.getCalendarFunc(ctx)
	}
	return []models.CalendarDay{}, nil
}

func (f *fakeClient) GetSubject(ctx context.Context, subjectID int) (*models.SeriesSummary, error) {
	if f.getSubjectFunc != nil {
		return f.getSubjectFunc(ctx, subjectID)
	}
	return nil, apperrors.NewSubjectNotFoundError(subjectID)
}

func (f *fakeClient) GetSubjects(ctx context.Context, subjectIDs []int) []client.SubjectResult {
	results := make([]client.SubjectResult, len(subjectIDs))
	for i, id := range subjectIDs {
		subject, err := f.GetSubject(ctx, id)
		results[i] = client.SubjectResult{SubjectID: id, Subject: subject, Err: err}
	}
	return results
}

func (f *fakeClient) GetEpisodes(ctx context.Context, subjectID, page, pageSize int) (*models.Page[models.EpisodeSummary], error) {
	if f.getEpisodesFunc != nil {
		return f.getEpisodesFunc(ctx, subjectID, page, pageSize)
	}
	return &models.Page[models.EpisodeSummary]{Items: []models.EpisodeSummary{}, Page: page, PageSize: pageSize}, nil
}

func (f *fakeClient) SearchSubjects(ctx context.Context, keyword string, page, pageSize int) (*models.Page[models.SeriesSummary], error) {
	if f.searchSubjectsFunc != nil {
		return f.searchSubjectsFunc(ctx, keyword, page, pageSize)
	}
	return &models.Page[models.SeriesSummary]{Items: []models.SeriesSummary{}, Page: page, PageSize: pageSize}, nil
}

func (f *fakeClient) DownloadPoster(context.Context, string) (*models.Poster, error) {
	return nil, errors.New("not served over grpc")
}

func (f *fakeClient) Close() error {
	return nil
}

func frieren() *models.SeriesSummary {
	pubAt := time.Date(2023, 9, 29, 0, 0, 0, 0, time.UTC)
	return &models.SeriesSummary{
		ID:        400602,
		Type:      models.SubjectTypeAnime,
		Name:      "Frieren",
		PosterURL: "https://lain.bgm.tv/pic/cover/c/5e/2b/400602_xyz.jpg",
		Count:     28,
		PubAt:     &pubAt,
		Tags:      []string{"fantasy"},
	}
}

func subjectsByID(ctx context.Context, subjectID int) (*models.SeriesSummary, error) {
	if subjectID == 400602 {
		return frieren(), nil
	}
	return nil, apperrors.NewSubjectNotFoundError(subjectID)
}

// newTestCatalog serves the catalog over an in-memory listener.
func newTestCatalog(t *testing.T, c client.Client) *CatalogClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterCatalogServer(srv, NewServer(c))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewCatalogClient(conn)
}

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return s
}

func TestGetCalendar(t *testing.T) {
	fc := &fakeClient{getCalendarFunc: func(context.Context) ([]models.CalendarDay, error) {
		return []models.CalendarDay{{
			Weekday: time.Friday,
			Name:    models.Weekday{EN: "Fri", CN: "星期五", ID: 5},
			Items:   []models.SeriesSummary{*frieren()},
		}}, nil
	}}
	catalog := newTestCatalog(t, fc)

	resp, err := catalog.Call(context.Background(), MethodGetCalendar, nil)
	if err != nil {
		t.Fatalf("GetCalendar failed: %v", err)
	}

	days := resp.GetFields()["days"].GetListValue().GetValues()
	if len(days) != 1 {
		t.Fatalf("Expected 1 day, got %d", len(days))
	}
	day := days[0].GetStructValue()
	if day.GetFields()["weekday"].GetNumberValue() != 5 {
		t.Errorf("Expected weekday 5, got %v", day.GetFields()["weekday"])
	}
	items := day.GetFields()["items"].GetListValue().GetValues()
	if len(items) != 1 || items[0].GetStructValue().GetFields()["name"].GetStringValue() != "Frieren" {
		t.Errorf("Unexpected items %v", items)
	}
}

func TestGetCalendar_RemoteUnavailable(t *testing.T) {
	fc := &fakeClient{getCalendarFunc: func(context.Context) ([]models.CalendarDay, error) {
		return nil, &apperrors.ErrRemoteUnavailable{Endpoint: "calendar", StatusCode: 503}
	}}
	catalog := newTestCatalog(t, fc)

	_, err := catalog.Call(context.Background(), MethodGetCalendar, nil)
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("Expected Unavailable, got %v", err)
	}
	if ReasonOf(err) != ReasonRemoteUnavailable {
		t.Errorf("Expected reason %s, got %q", ReasonRemoteUnavailable, ReasonOf(err))
	}
}

func TestGetSubject(t *testing.T) {
	catalog := newTestCatalog(t, &fakeClient{getSubjectFunc: subjectsByID})

	resp, err := catalog.Call(context.Background(), MethodGetSubject, mustStruct(t, map[string]any{"subject_id": 400602}))
	if err != nil {
		t.Fatalf("GetSubject failed: %v", err)
	}
	subject := resp.GetFields()["subject"].GetStructValue().GetFields()
	if subject["id"].GetNumberValue() != 400602 || subject["count"].GetNumberValue() != 28 {
		t.Errorf("Unexpected subject %v", subject)
	}
	if subject["pub_at"].GetStringValue() == "" {
		t.Error("Expected pub_at to be set")
	}
}

func TestGetSubject_Errors(t *testing.T) {
	catalog := newTestCatalog(t, &fakeClient{getSubjectFunc: subjectsByID})

	tests := []struct {
		name   string
		req    map[string]any
		code   codes.Code
		reason string
	}{
		{name: "not found", req: map[string]any{"subject_id": 1}, code: codes.NotFound, reason: ReasonSubjectNotFound},
		{name: "missing id", req: map[string]any{}, code: codes.InvalidArgument},
		{name: "fractional id", req: map[string]any{"subject_id": 1.5}, code: codes.InvalidArgument},
		{name: "string id", req: map[string]any{"subject_id": "400602"}, code: codes.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Call(context.Background(), MethodGetSubject, mustStruct(t, tt.req))
			if status.Code(err) != tt.code {
				t.Fatalf("Expected %v, got %v", tt.code, err)
			}
			if tt.reason != "" && ReasonOf(err) != tt.reason {
				t.Errorf("Expected reason %s, got %q", tt.reason, ReasonOf(err))
			}
		})
	}
}

func TestBatchGetSubjects(t *testing.T) {
	catalog := newTestCatalog(t, &fakeClient{getSubjectFunc: subjectsByID})

	resp, err := catalog.Call(context.Background(), MethodBatchGetSubjects,
		mustStruct(t, map[string]any{"subject_ids": []any{400602, 7}}))
	if err != nil {
		t.Fatalf("BatchGetSubjects failed: %v", err)
	}

	results := resp.GetFields()["results"].GetListValue().GetValues()
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	first := results[0].GetStructValue().GetFields()
	if first["subject"].GetStructValue().GetFields()["name"].GetStringValue() != "Frieren" {
		t.Errorf("Unexpected first result %v", first)
	}
	second := results[1].GetStructValue().GetFields()
	if second["subject_id"].GetNumberValue() != 7 || second["error"].GetStringValue() == "" {
		t.Errorf("Expected an inline error for subject 7, got %v", second)
	}
}

func TestListEpisodes_Defaults(t *testing.T) {
	var gotPage, gotSize int
	fc := &fakeClient{getEpisodesFunc: func(_ context.Context, subjectID, page, pageSize int) (*models.Page[models.EpisodeSummary], error) {
		gotPage, gotSize = page, pageSize
		return &models.Page[models.EpisodeSummary]{
			Items: []models.EpisodeSummary{{ID: 1, SubjectID: subjectID, No: "01", Title: "The Journey's End"}},
			Total: 28, Page: page, PageSize: pageSize,
		}, nil
	}}
	catalog := newTestCatalog(t, fc)

	resp, err := catalog.Call(context.Background(), MethodListEpisodes, mustStruct(t, map[string]any{"subject_id": 400602}))
	if err != nil {
		t.Fatalf("ListEpisodes failed: %v", err)
	}
	if gotPage != 0 || gotSize != client.DefaultEpisodePageSize {
		t.Errorf("Unexpected paging %d/%d", gotPage, gotSize)
	}
	if resp.GetFields()["total"].GetNumberValue() != 28 {
		t.Errorf("Unexpected total %v", resp.GetFields()["total"])
	}
}

func TestSearchSubjects(t *testing.T) {
	var gotKeyword string
	var gotPage, gotSize int
	fc := &fakeClient{searchSubjectsFunc: func(_ context.Context, keyword string, page, pageSize int) (*models.Page[models.SeriesSummary], error) {
		gotKeyword, gotPage, gotSize = keyword, page, pageSize
		return &models.Page[models.SeriesSummary]{Items: []models.SeriesSummary{*frieren()}, Total: 1, Page: page, PageSize: pageSize}, nil
	}}
	catalog := newTestCatalog(t, fc)

	resp, err := catalog.Call(context.Background(), MethodSearchSubjects,
		mustStruct(t, map[string]any{"keyword": "frieren", "page": 2, "page_size": 5}))
	if err != nil {
		t.Fatalf("SearchSubjects failed: %v", err)
	}
	if gotKeyword != "frieren" || gotPage != 2 || gotSize != 5 {
		t.Errorf("Unexpected call %q %d %d", gotKeyword, gotPage, gotSize)
	}
	if len(resp.GetFields()["items"].GetListValue().GetValues()) != 1 {
		t.Errorf("Expected 1 item, got %v", resp.GetFields()["items"])
	}

	_, err = catalog.Call(context.Background(), MethodSearchSubjects, mustStruct(t, map[string]any{}))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("Expected InvalidArgument without keyword, got %v", err)
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{name: "wrapped not found", err: errors.Join(errors.New("lookup"), apperrors.NewSubjectNotFoundError(3)), code: codes.NotFound},
		{name: "deadline", err: context.DeadlineExceeded, code: codes.DeadlineExceeded},
		{name: "canceled", err: context.Canceled, code: codes.Canceled},
		{name: "other", err: errors.New("boom"), code: codes.Internal},
		{name: "already a status", err: status.Error(codes.PermissionDenied, "no"), code: codes.PermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status.Code(toStatus(tt.err, nil)); got != tt.code {
				t.Errorf("toStatus(%v) = %v, want %v", tt.err, got, tt.code)
			}
		})
	}
}

func TestStructRoundTrip(t *testing.T) {
	in := frieren()
	s, err := toStruct(in)
	if err != nil {
		t.Fatalf("toStruct: %v", err)
	}
	var out models.SeriesSummary
	if err := fromStruct(s, &out); err != nil {
		t.Fatalf("fromStruct: %v", err)
	}
	if out.ID != in.ID || out.Name != in.Name || !out.PubAt.Equal(*in.PubAt) {
		t.Errorf("Round trip changed the subject: %+v", out)
	}
}
