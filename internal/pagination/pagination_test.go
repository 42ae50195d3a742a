package pagination

import "testing"

func TestDefaults(t *testing.T) {
	tests := []struct {
		name      string
		in        PageRequest
		wantPage  int
		wantLimit int
	}{
		{"empty", PageRequest{}, 1, DefaultLimit},
		{"explicit", PageRequest{Page: 3, Limit: 25}, 3, 25},
		{"limit_capped", PageRequest{Page: 1, Limit: 500}, 1, MaxLimit},
		{"negative_page", PageRequest{Page: -2, Limit: 5}, 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.in
			req.Defaults()
			if req.Page != tt.wantPage || req.Limit != tt.wantLimit {
				t.Errorf("got page=%d limit=%d, want page=%d limit=%d", req.Page, req.Limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := (PageRequest{Page: 2, Limit: 10}).Offset(); got != 10 {
		t.Errorf("expected offset 10, got %d", got)
	}
	if got := (PageRequest{Page: 1, Limit: 10}).Offset(); got != 0 {
		t.Errorf("expected offset 0, got %d", got)
	}
}

func TestNewMeta(t *testing.T) {
	t.Run("middle_page", func(t *testing.T) {
		m := NewMeta(PageRequest{Page: 2, Limit: 10}, 25)
		if m.TotalPages != 3 || !m.HasNextPage || !m.HasPreviousPage {
			t.Errorf("unexpected meta: %+v", m)
		}
	})

	t.Run("last_page", func(t *testing.T) {
		m := NewMeta(PageRequest{Page: 3, Limit: 10}, 25)
		if m.HasNextPage {
			t.Error("expected no next page")
		}
	})

	t.Run("empty_result", func(t *testing.T) {
		m := NewMeta(PageRequest{Page: 1, Limit: 10}, 0)
		if m.TotalPages != 0 || m.HasNextPage || m.HasPreviousPage {
			t.Errorf("unexpected meta: %+v", m)
		}
	})

	t.Run("page_beyond_range", func(t *testing.T) {
		m := NewMeta(PageRequest{Page: 9, Limit: 10}, 15)
		if m.HasNextPage || !m.HasPreviousPage || m.CurrentPage != 9 {
			t.Errorf("unexpected meta: %+v", m)
		}
	})
}

func TestPageParamsRequest(t *testing.T) {
	page, limit := 3, 25
	req := PageParams{Page: &page, Limit: &limit}.Request()
	if req.Page != 3 || req.Limit != 25 {
		t.Errorf("unexpected request %+v", req)
	}

	req = PageParams{}.Request()
	req.Defaults()
	if req.Page != 1 || req.Limit != DefaultLimit {
		t.Errorf("expected defaults for absent params, got %+v", req)
	}
}
