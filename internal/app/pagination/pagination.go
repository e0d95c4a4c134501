// Package pagination normalizes page/limit query parameters and builds list envelopes.
package pagination

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a 1-based page request. Zero values mean defaults.
type Params struct {
	Page  int
	Limit int
}

// Normalize applies defaults: page >= 1, limit in 1..MaxLimit.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	return p
}

func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

type Info struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Page is one page of results plus pagination metadata.
type Page[T any] struct {
	Data       []T
	Pagination Info
}

func NewInfo(p Params, total int) Info {
	n := p.Normalize()
	pages := (total + n.Limit - 1) / n.Limit
	return Info{
		Page:       n.Page,
		Limit:      n.Limit,
		Total:      total,
		TotalPages: pages,
		HasNext:    n.Page < pages,
		HasPrev:    n.Page > 1,
	}
}

func New[T any](data []T, p Params, total int) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{Data: data, Pagination: NewInfo(p, total)}
}
