package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUndecodableFile 文件无法解析
	ErrUndecodableFile = errors.New("file could not be decoded as a spreadsheet")

	// ErrInvalidRating 评分无法转换为数值
	ErrInvalidRating = errors.New("rating is not a number")

	// ErrInvalidName 名称无法转换为文本
	ErrInvalidName = errors.New("name is not text")
)

// CastError reports a draft the store could not cast to its column types.
type CastError struct {
	Index int
	Err   error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *CastError) Unwrap() error { return e.Err }

// BatchInsertError reports a chunked insert that failed part way. The
// first Persisted records of the batch were stored and are not rolled back.
type BatchInsertError struct {
	Persisted int
	Submitted int
	Err       error
}

func (e *BatchInsertError) Error() string {
	return fmt.Sprintf("batch insert failed after %d of %d records: %v", e.Persisted, e.Submitted, e.Err)
}

func (e *BatchInsertError) Unwrap() error { return e.Err }
