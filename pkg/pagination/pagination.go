package pagination

const (
	// DefaultPageSize is the standard page size when one is not provided.
	DefaultPageSize = 25
	// MaxPageSize caps how many rows any list query can request.
	MaxPageSize = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// Normalize enforces the configured defaults and maximum page size.
func Normalize(p Params) Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the row offset for the normalized parameters.
func (p Params) Offset() int {
	page := p.Page
	if page <= 0 {
		page = 1
	}
	return (page - 1) * p.PageSize
}

// Meta describes a page of results for response envelopes.
type Meta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int64 `json:"totalPages"`
}

// MetaFor computes response metadata from normalized params and a total count.
func MetaFor(p Params, total int64) Meta {
	meta := Meta{
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalCount: total,
	}
	if p.PageSize > 0 {
		meta.TotalPages = (total + int64(p.PageSize) - 1) / int64(p.PageSize)
	}
	return meta
}
