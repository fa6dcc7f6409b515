package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		wantOffset int
		wantLimit  int
	}{
		{name: "first page", page: 1, limit: 20, wantOffset: 0, wantLimit: 20},
		{name: "third page", page: 3, limit: 10, wantOffset: 20, wantLimit: 10},
		{name: "zero page", page: 0, limit: 10, wantOffset: 0, wantLimit: 10},
		{name: "negative page", page: -5, limit: 10, wantOffset: 0, wantLimit: 10},
		{name: "negative limit", page: 2, limit: -1, wantOffset: 0, wantLimit: 0},
		{name: "past max page", page: MaxPage + 1, limit: 100, wantOffset: (MaxPage - 1) * 100, wantLimit: 100},
		{name: "huge page", page: math.MaxInt, limit: 100, wantOffset: (MaxPage - 1) * 100, wantLimit: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(tt.page, tt.limit, "created_at", true)
			assert.Equal(t, tt.wantOffset, p.Offset)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.GreaterOrEqual(t, p.Offset, 0)
			assert.Equal(t, "created_at", p.SortBy)
			assert.True(t, p.Desc)
		})
	}
}
