package domain

import (
	"context"
)

// MovieRepository 电影仓储接口
type MovieRepository interface {
	// Create 创建单条记录
	Create(ctx context.Context, draft *MovieDraft) (*Movie, error)

	// BatchInsert stores drafts in order, chunk by chunk. A failure returns
	// *BatchInsertError; drafts that cannot be cast return *CastError before
	// anything is written.
	BatchInsert(ctx context.Context, drafts []*MovieDraft) ([]*Movie, error)

	// Count 统计匹配记录数（忽略分页）
	Count(ctx context.Context, q MovieQuery) (int64, error)

	// Find 查询一页记录，按 created_at, id 排序
	Find(ctx context.Context, q MovieQuery) ([]*Movie, error)
}

// TabularDecoder decodes an uploaded file into rows of its first sheet.
type TabularDecoder interface {
	Decode(data []byte) ([]Row, error)
}

// ImportArchive stores raw uploads and returns the object key.
type ImportArchive interface {
	Put(ctx context.Context, upload Upload) (string, error)
}

// ListCache caches listing pages until the next write.
//
// On a miss Get returns the key the page must be stored under. The key is
// bound to the cache state Get observed, so a page read from the store
// before a concurrent Invalidate is never served after it. An empty key
// means the page is not cached.
type ListCache interface {
	Get(ctx context.Context, q MovieQuery) (page *MoviePage, key string, hit bool)
	Set(ctx context.Context, key string, page *MoviePage)
	Invalidate(ctx context.Context)
}
