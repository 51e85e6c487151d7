package domain

import "math"

// 分页默认值
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// MovieQuery is a coerced listing filter. Page and Limit are always >= 1.
type MovieQuery struct {
	Genre     string   `json:"genre,omitempty"`
	MinRating *float64 `json:"minRating,omitempty"`
	Page      int      `json:"page"`
	Limit     int      `json:"limit"`
}

// Offset returns the number of records before the page. A product that
// would overflow int saturates at math.MaxInt, which reads as past the end.
func (q MovieQuery) Offset() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// MoviePage 分页结果
type MoviePage struct {
	Total int64    `json:"total"`
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
	Data  []*Movie `json:"data"`
}
