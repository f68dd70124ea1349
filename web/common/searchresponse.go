package common

type Pagination struct {
	Total int64 `json:"total"`
}

// SearchResponse carries an unpaged result list. Data is never null.
type SearchResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func NewSearchResponse[T any](data []T) *SearchResponse[T] {
	if data == nil {
		data = []T{}
	}
	return &SearchResponse[T]{
		Data:       data,
		Pagination: Pagination{Total: int64(len(data))},
	}
}
