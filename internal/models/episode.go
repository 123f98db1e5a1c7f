package models

// EpisodeTypeMain is the Bangumi episode type for regular episodes.
const EpisodeTypeMain = 0

// Episode is a Bangumi episode as returned by the v0 API.
type Episode struct {
	ID        int     `json:"id"`
	Type      int     `json:"type"`
	Name      string  `json:"name"`
	NameCN    string  `json:"name_cn"`
	Sort      float64 `json:"sort"`
	Ep        float64 `json:"ep"`
	AirDate   string  `json:"airdate"`
	Duration  string  `json:"duration"`
	Desc      string  `json:"desc"`
	SubjectID int     `json:"subject_id"`
}

// EpisodePage is the paginated body of /v0/episodes.
type EpisodePage struct {
	Data   []Episode `json:"data"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}
