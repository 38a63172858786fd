package visibility

import (
	"slices"
	"testing"
)

func TestPaginate(t *testing.T) {
	ids := catalogIDs(25)

	tests := []struct {
		name      string
		page      int
		perPage   int
		wantIDs   []string
		wantPages int
	}{
		{"first page", 1, 10, ids[0:10], 3},
		{"last partial page", 3, 10, ids[20:25], 3},
		{"past the end", 4, 10, []string{}, 3},
		{"page below one", 0, 10, ids[0:10], 3},
		{"default page size", 2, 0, ids[10:20], 3},
		{"huge page number", 922337203685477582, 10, []string{}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(ids, tt.page, tt.perPage)
			if !slices.Equal(p.IDs, tt.wantIDs) {
				t.Errorf("ids = %v, want %v", p.IDs, tt.wantIDs)
			}
			if p.TotalPages != tt.wantPages {
				t.Errorf("total pages = %d, want %d", p.TotalPages, tt.wantPages)
			}
			if p.TotalItems != 25 {
				t.Errorf("total items = %d, want 25", p.TotalItems)
			}
		})
	}
}

func TestPaginate_HugePageDefaultSize(t *testing.T) {
	p := Paginate([]string{"a", "b", "c"}, 922337203685477582, 0)
	if len(p.IDs) != 0 {
		t.Errorf("ids = %v, want empty", p.IDs)
	}
}

func TestPaginate_Empty(t *testing.T) {
	p := Paginate(nil, 1, 10)
	if len(p.IDs) != 0 || p.TotalPages != 0 {
		t.Errorf("page = %+v, want empty", p)
	}
}

func TestWhole(t *testing.T) {
	p := Whole([]string{"2", "5"})
	if p.TotalPages != 1 || !slices.Equal(p.IDs, []string{"2", "5"}) {
		t.Errorf("page = %+v", p)
	}
	if empty := Whole(nil); empty.TotalPages != 0 || empty.IDs == nil {
		t.Errorf("empty page = %+v", empty)
	}
}
