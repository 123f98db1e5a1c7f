package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/Belphemur/BangumiBridge/internal/models"
)

// SubjectOptions contains options for generating a Bangumi subject.
type SubjectOptions struct {
	ID            int
	Type          int // defaults to anime
	Name          string
	NameCN        string
	Summary       string
	Date          string
	TotalEpisodes int
	Tags          []string
	ImageHost     string // when set, poster URLs point to this host
}

// CalendarDayOptions contains options for generating one calendar weekday bucket.
type CalendarDayOptions struct {
	WeekdayID int // 1 = Monday ... 7 = Sunday
	EN        string
	CN        string
	Subjects  []SubjectOptions
}

// EpisodeOptions contains options for generating an episode.
type EpisodeOptions struct {
	ID      int
	Ep      float64
	Sort    float64
	Name    string
	NameCN  string
	AirDate string
}

// PosterURL returns the poster URL generated for a subject at the given size.
func PosterURL(host string, size string, id int) string {
	return fmt.Sprintf("%s/pic/cover/%s/%d.jpg", host, size, id)
}

// BuildSubject builds the remote subject described by opts.
func BuildSubject(opts SubjectOptions) models.Subject {
	subjectType := opts.Type
	if subjectType == 0 {
		subjectType = models.SubjectTypeAnime
	}
	subject := models.Subject{
		ID:            opts.ID,
		Type:          subjectType,
		Name:          opts.Name,
		NameCN:        opts.NameCN,
		Summary:       opts.Summary,
		Date:          opts.Date,
		TotalEpisodes: opts.TotalEpisodes,
	}
	if opts.ImageHost != "" {
		subject.Images = models.SubjectImages{
			Large:  PosterURL(opts.ImageHost, "l", opts.ID),
			Common: PosterURL(opts.ImageHost, "c", opts.ID),
			Medium: PosterURL(opts.ImageHost, "m", opts.ID),
			Small:  PosterURL(opts.ImageHost, "s", opts.ID),
			Grid:   PosterURL(opts.ImageHost, "g", opts.ID),
		}
	}
	for _, tag := range opts.Tags {
		subject.Tags = append(subject.Tags, models.SubjectTag{Name: tag, Count: 1})
	}
	return subject
}

// GenerateSubjectJSON generates a /v0/subjects/{id} body.
func GenerateSubjectJSON(opts SubjectOptions) string {
	return mustJSON(BuildSubject(opts))
}

// GenerateCalendarJSON generates a /calendar body.
func GenerateCalendarJSON(days []CalendarDayOptions) string {
	items := make([]models.CalendarItem, 0, len(days))
	for _, day := range days {
		item := models.CalendarItem{
			Weekday: models.Weekday{EN: day.EN, CN: day.CN, ID: day.WeekdayID},
			Items:   []models.Subject{},
		}
		for _, subject := range day.Subjects {
			item.Items = append(item.Items, BuildSubject(subject))
		}
		items = append(items, item)
	}
	return mustJSON(items)
}

// GenerateSearchJSON generates a /search/subject body with the given total.
func GenerateSearchJSON(total int, subjects []SubjectOptions) string {
	response := models.SearchResponse{Results: total}
	for _, subject := range subjects {
		response.List = append(response.List, BuildSubject(subject))
	}
	return mustJSON(response)
}

// GenerateSearchNotFoundJSON generates the body the legacy search endpoint returns for zero matches.
func GenerateSearchNotFoundJSON() string {
	return `{"request":"/search/subject/none","code":404,"error":"Not Found"}`
}

// GenerateEpisodesJSON generates a /v0/episodes body.
func GenerateEpisodesJSON(subjectID, total, limit, offset int, episodes []EpisodeOptions) string {
	page := models.EpisodePage{Data: []models.Episode{}, Total: total, Limit: limit, Offset: offset}
	for _, e := range episodes {
		page.Data = append(page.Data, models.Episode{
			ID:        e.ID,
			Type:      models.EpisodeTypeMain,
			Name:      e.Name,
			NameCN:    e.NameCN,
			Ep:        e.Ep,
			Sort:      e.Sort,
			AirDate:   e.AirDate,
			SubjectID: subjectID,
		})
	}
	return mustJSON(page)
}

// PNGBytes returns a tiny payload sniffed as image/png.
func PNGBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
}

// JPEGBytes returns a tiny payload sniffed as image/jpeg.
func JPEGBytes() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 32)...)
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
