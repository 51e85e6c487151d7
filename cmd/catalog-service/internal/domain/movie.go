package domain

import "time"

// 表格列名
const (
	FieldName         = "name"
	FieldRating       = "rating"
	FieldGenres       = "genres"
	FieldWatchedUsers = "watchedUsers"
)

// Row is one decoded spreadsheet row keyed by header. Values are float64,
// bool or string; empty cells are absent.
type Row map[string]interface{}

// Movie 电影记录
type Movie struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Rating       *float64  `json:"rating"`
	Genres       []string  `json:"genres"`
	WatchedUsers []string  `json:"watchedUsers"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MovieDraft is a normalized record that has not been stored yet.
// Name and Rating keep whatever type the source produced; the store
// casts them. Genres and WatchedUsers are never nil.
type MovieDraft struct {
	Name         interface{} `json:"name" yaml:"name"`
	Rating       interface{} `json:"rating" yaml:"rating"`
	Genres       []string    `json:"genres" yaml:"genres"`
	WatchedUsers []string    `json:"watchedUsers" yaml:"watchedUsers"`
}

// NewMovieDraft builds a draft from typed input, defaulting missing lists.
func NewMovieDraft(name string, rating *float64, genres, watchedUsers []string) *MovieDraft {
	d := &MovieDraft{
		Name:         name,
		Genres:       genres,
		WatchedUsers: watchedUsers,
	}
	if rating != nil {
		d.Rating = *rating
	}
	if d.Genres == nil {
		d.Genres = []string{}
	}
	if d.WatchedUsers == nil {
		d.WatchedUsers = []string{}
	}
	return d
}

// Upload 上传文件
type Upload struct {
	Filename string
	Data     []byte
}
