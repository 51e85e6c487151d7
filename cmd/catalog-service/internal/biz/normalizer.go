package biz

import (
	"strings"

	"moviecatalog/cmd/catalog-service/internal/domain"
)

// listSeparator 列表字段分隔符
const listSeparator = ","

// NormalizerOptions 规范化选项
type NormalizerOptions struct {
	// TrimSpace trims each split element. Off by default so "a, b" keeps " b".
	TrimSpace bool
	// AcceptLists keeps string elements of list-valued cells. Off by default,
	// in which case a list-valued cell becomes an empty list.
	AcceptLists bool
}

// Normalizer turns decoded rows into drafts. It never fails.
type Normalizer struct {
	opts NormalizerOptions
}

// NewNormalizer 创建规范化器
func NewNormalizer(opts NormalizerOptions) *Normalizer {
	return &Normalizer{opts: opts}
}

// Normalize 规范化单行
func (n *Normalizer) Normalize(row domain.Row) *domain.MovieDraft {
	return &domain.MovieDraft{
		Name:         row[domain.FieldName],
		Rating:       row[domain.FieldRating],
		Genres:       n.toList(row[domain.FieldGenres]),
		WatchedUsers: n.toList(row[domain.FieldWatchedUsers]),
	}
}

// NormalizeAll 规范化所有行，输出与输入一一对应
func (n *Normalizer) NormalizeAll(rows []domain.Row) []*domain.MovieDraft {
	drafts := make([]*domain.MovieDraft, len(rows))
	for i, row := range rows {
		drafts[i] = n.Normalize(row)
	}
	return drafts
}

func (n *Normalizer) toList(v interface{}) []string {
	switch val := v.(type) {
	case string:
		parts := strings.Split(val, listSeparator)
		if n.opts.TrimSpace {
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
		}
		return parts
	case []string:
		if n.opts.AcceptLists {
			return append([]string{}, val...)
		}
	case []interface{}:
		if n.opts.AcceptLists {
			out := make([]string, 0, len(val))
			for _, item := range val {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out
		}
	}
	return []string{}
}
