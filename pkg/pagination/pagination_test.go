package pagination

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   Params
		want Params
	}{
		{"defaults", Params{}, Params{Page: 1, PageSize: DefaultPageSize}},
		{"negative page", Params{Page: -3, PageSize: 10}, Params{Page: 1, PageSize: 10}},
		{"capped size", Params{Page: 2, PageSize: 500}, Params{Page: 2, PageSize: MaxPageSize}},
		{"passthrough", Params{Page: 4, PageSize: 50}, Params{Page: 4, PageSize: 50}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if got != tc.want {
				t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if off := (Params{Page: 1, PageSize: 25}).Offset(); off != 0 {
		t.Fatalf("expected offset 0, got %d", off)
	}
	if off := (Params{Page: 3, PageSize: 10}).Offset(); off != 20 {
		t.Fatalf("expected offset 20, got %d", off)
	}
	if off := (Params{Page: 0, PageSize: 10}).Offset(); off != 0 {
		t.Fatalf("expected offset 0 for unset page, got %d", off)
	}
}

func TestMetaFor(t *testing.T) {
	meta := MetaFor(Params{Page: 2, PageSize: 10}, 25)
	if meta.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", meta.TotalPages)
	}
	if meta.TotalCount != 25 || meta.Page != 2 || meta.PageSize != 10 {
		t.Fatalf("unexpected meta %+v", meta)
	}

	empty := MetaFor(Params{Page: 1, PageSize: 10}, 0)
	if empty.TotalPages != 0 {
		t.Fatalf("expected 0 pages for empty result, got %d", empty.TotalPages)
	}
}
