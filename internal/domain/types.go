package domain

// ID is used across domain entities.
type ID int64

// Roles known to the access-control layer.
const (
	RoleAdmin     = "admin"
	RoleProvider  = "provider"
	RoleReception = "reception"
	RoleClient    = "client"
)

// Principal is the authenticated caller, resolved once per request by the auth
// middleware and passed down explicitly.
type Principal struct {
	UserID ID     `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
}

// IsStaff reports whether the principal works at the spa.
func (p Principal) IsStaff() bool {
	switch p.Role {
	case RoleAdmin, RoleProvider, RoleReception:
		return true
	default:
		return false
	}
}

// Pagination carries paging params and totals.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// MaxPage keeps (Page-1)*PageSize far from overflowing into a negative OFFSET.
const MaxPage = 1_000_000

// Normalize clamps page/page size to sane bounds.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PageSize < 1 {
		p.PageSize = 25
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
	return p
}

// Offset is the SQL OFFSET for the current page.
func (p Pagination) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PageSize
}

// Page is the one list envelope every list endpoint returns.
type Page[T any] struct {
	Data []T        `json:"data"`
	Meta Pagination `json:"meta"`
}

// NewPage never returns a nil Data slice so clients always see an array.
func NewPage[T any](items []T, p Pagination) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Data: items, Meta: p}
}
