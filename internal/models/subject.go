package models

// SubjectTypeAnime is the Bangumi subject type for anime; only these subjects are series.
const SubjectTypeAnime = 2

// SubjectImages holds poster URLs ordered from the largest to the smallest resolution.
type SubjectImages struct {
	Large  string `json:"large"`
	Common string `json:"common"`
	Medium string `json:"medium"`
	Small  string `json:"small"`
	Grid   string `json:"grid"`
}

// SubjectTag is a user tag attached to a subject by the Bangumi community.
type SubjectTag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Subject is a Bangumi subject as returned by the v0 API, the calendar and the legacy search endpoint.
// Optional arrays are left nil when the remote omits them.
type Subject struct {
	ID            int           `json:"id"`
	Type          int           `json:"type"`
	Name          string        `json:"name"`
	NameCN        string        `json:"name_cn"`
	Summary       string        `json:"summary"`
	Date          string        `json:"date"`
	AirDate       string        `json:"air_date"` // legacy endpoints
	Images        SubjectImages `json:"images"`
	TotalEpisodes int           `json:"total_episodes"`
	EpsCount      int           `json:"eps_count"` // legacy endpoints
	Tags          []SubjectTag  `json:"tags"`
}

// Weekday identifies a calendar day. ID runs from 1 (Monday) to 7 (Sunday).
type Weekday struct {
	EN string `json:"en"`
	CN string `json:"cn"`
	JA string `json:"ja"`
	ID int    `json:"id"`
}

// CalendarItem is one weekday bucket of the Bangumi broadcast calendar.
type CalendarItem struct {
	Weekday Weekday   `json:"weekday"`
	Items   []Subject `json:"items"`
}

// SearchResponse is the body of the legacy /search/subject endpoint.
// A "not found" search is reported by the remote with Code 404 and a 200 status.
type SearchResponse struct {
	Results int       `json:"results"`
	List    []Subject `json:"list"`
	Code    int       `json:"code"`
	Error   string    `json:"error"`
}
