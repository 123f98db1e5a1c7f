package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Belphemur/BangumiBridge/internal/cache"
	"github.com/Belphemur/BangumiBridge/internal/testutil"
)

func newCalendarCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.New("memory", cache.ProviderConfig{Size: 4, TTL: time.Minute})
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	return c
}

func TestCachedClient_GetCalendar(t *testing.T) {
	var calendarHits, subjectHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/calendar":
			calendarHits.Add(1)
			_, _ = w.Write([]byte(testutil.GenerateCalendarJSON([]testutil.CalendarDayOptions{
				{WeekdayID: 3, EN: "Wed", CN: "星期三", Subjects: []testutil.SubjectOptions{{ID: 42, Name: "Cached"}}},
			})))
		default:
			subjectHits.Add(1)
			_, _ = w.Write([]byte(testutil.GenerateSubjectJSON(testutil.SubjectOptions{ID: 7, Name: "Remote"})))
		}
	}))
	defer server.Close()

	c := NewCachedClient(NewClient(testConfig(server.URL)), newCalendarCache(t))
	defer c.Close()

	for i := 0; i < 3; i++ {
		days, err := c.GetCalendar(context.Background())
		if err != nil {
			t.Fatalf("GetCalendar #%d failed: %v", i, err)
		}
		if len(days) != 1 || days[0].Weekday != time.Wednesday || len(days[0].Items) != 1 {
			t.Fatalf("Unexpected calendar %+v", days)
		}
	}
	if calendarHits.Load() != 1 {
		t.Errorf("Expected one calendar fetch, got %d", calendarHits.Load())
	}

	if subjectHits.Load() != 0 {
		t.Errorf("Calendar fetches must not touch subjects, got %d", subjectHits.Load())
	}
}

func TestCachedClient_GetSubjectIgnoresCachedCalendar(t *testing.T) {
	var subjectHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/calendar":
			// Legacy calendar items carry neither tags, episode totals nor a summary.
			_, _ = w.Write([]byte(testutil.GenerateCalendarJSON([]testutil.CalendarDayOptions{
				{WeekdayID: 5, EN: "Fri", CN: "星期五", Subjects: []testutil.SubjectOptions{{ID: 400602, Name: "Frieren"}}},
			})))
		case "/v0/subjects/400602":
			subjectHits.Add(1)
			_, _ = w.Write([]byte(testutil.GenerateSubjectJSON(testutil.SubjectOptions{
				ID:            400602,
				Name:          "Frieren",
				Summary:       "After the party defeats the Demon King...",
				TotalEpisodes: 28,
				Tags:          []string{"fantasy"},
			})))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewCachedClient(NewClient(testConfig(server.URL)), newCalendarCache(t))
	defer c.Close()

	if _, err := c.GetCalendar(context.Background()); err != nil {
		t.Fatalf("GetCalendar failed: %v", err)
	}

	subject, err := c.GetSubject(context.Background(), 400602)
	if err != nil {
		t.Fatalf("GetSubject failed: %v", err)
	}
	if subjectHits.Load() != 1 {
		t.Errorf("Expected the subject endpoint to be called once, got %d", subjectHits.Load())
	}
	if subject.Count != 28 || subject.Description == "" || len(subject.Tags) != 1 || subject.Tags[0] != "fantasy" {
		t.Errorf("Expected the full subject, got %+v", subject)
	}
}

func TestNewCachedClient_NilCacheIsPassThrough(t *testing.T) {
	inner := NewClient(testConfig("http://127.0.0.1:1"))
	defer inner.Close()

	if c := NewCachedClient(inner, nil); c != inner {
		t.Errorf("Expected the inner client back, got %T", c)
	}
}

func TestCachedClient_ErrorsAreNotCached(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(testutil.GenerateCalendarJSON(nil)))
	}))
	defer server.Close()

	c := NewCachedClient(NewClient(testConfig(server.URL)), newCalendarCache(t))
	defer c.Close()

	if _, err := c.GetCalendar(context.Background()); err == nil {
		t.Fatal("Expected first call to fail")
	}
	if _, err := c.GetCalendar(context.Background()); err != nil {
		t.Fatalf("Expected second call to reach the remote, got %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("Expected 2 remote calls, got %d", hits.Load())
	}
}
