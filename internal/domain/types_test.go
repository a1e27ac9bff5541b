package domain

import (
	"math"
	"testing"
)

func TestPaginationNormalize(t *testing.T) {
	p := Pagination{Page: 0, PageSize: 0}.Normalize()
	if p.Page != 1 || p.PageSize != 25 {
		t.Fatalf("unexpected defaults %+v", p)
	}
	if p := (Pagination{Page: 2, PageSize: 5000}).Normalize(); p.PageSize != 200 {
		t.Fatalf("page size not capped: %+v", p)
	}
}

func TestPaginationOffsetNeverNegative(t *testing.T) {
	p := Pagination{Page: math.MaxInt, PageSize: 200}
	if off := p.Offset(); off <= 0 {
		t.Fatalf("offset overflowed to %d", off)
	}
	if n := p.Normalize(); n.Page != MaxPage {
		t.Fatalf("page not capped: %d", n.Page)
	}
	if off := (Pagination{Page: 3, PageSize: 10}).Offset(); off != 20 {
		t.Fatalf("offset = %d", off)
	}
}
