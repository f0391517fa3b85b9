package domain

// Page 分页结果
// Items 按 created_at 降序排列，created_at 相同时按 id 降序，保证分页遍历稳定
type Page[T any] struct {
	Items      []T   `json:"content"`
	PageIndex  int   `json:"currentPage"`
	PageSize   int   `json:"size"`
	TotalItems int   `json:"totalElements"`
	TotalPages int   `json:"totalPages"`
	First      bool  `json:"first"`
	Last       bool  `json:"last"`
}

// NewPage 根据过滤后的总数计算分页元数据
// pageIndex 从 0 开始；total 为过滤后的总条数，不是全表条数
func NewPage[T any](items []T, pageIndex, pageSize, total int) Page[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		PageIndex:  pageIndex,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
		First:      pageIndex == 0,
		Last:       totalPages == 0 || pageIndex >= totalPages-1,
	}
}

// EmptyPage 空分页结果（时间过滤串解析失败时返回，调用方只能通过 total=0 区分）
func EmptyPage[T any](pageIndex, pageSize int) Page[T] {
	return NewPage[T]([]T{}, pageIndex, pageSize, 0)
}
