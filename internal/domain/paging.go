package domain

// PagingRequest — PageIndex считается с единицы
type PagingRequest struct {
	PageIndex int `form:"page_index" json:"page_index"`
	PageSize  int `form:"page_size" json:"page_size"`
}

func (p *PagingRequest) Normalize(defaultPageSize int) {
	if p.PageIndex < 1 {
		p.PageIndex = 1
	}
	if p.PageSize <= 0 || p.PageSize > 200 {
		p.PageSize = defaultPageSize
	}
}

func (p *PagingRequest) Offset() int {
	return (p.PageIndex - 1) * p.PageSize
}

type PagingResponse[T any] struct {
	PageIndex  int `json:"page_index"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	Data       []T `json:"data"`
}

func NewPagingResponse[T any](totalCount int, data []T, pageIndex, pageSize int) *PagingResponse[T] {
	return &PagingResponse[T]{
		PageIndex:  pageIndex,
		PageSize:   pageSize,
		TotalCount: totalCount,
		Data:       data,
	}
}
