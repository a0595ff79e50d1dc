package knowledge

import (
	"testing"
)

func TestSearchRanking(t *testing.T) {
	store := NewDefaultStore()

	tests := []struct {
		name      string
		query     string
		category  Category
		limit     int
		wantTopID string
		wantEmpty bool
	}{
		{
			name:      "full token overlap ranks the product doc first",
			query:     "dscr rental rates",
			wantTopID: "dscr-loans",
		},
		{
			name:      "ties keep catalog order",
			query:     "dscr",
			wantTopID: "dscr-loans",
		},
		{
			name:      "mao question hits the deals doc",
			query:     "maximum allowable offer flippers",
			wantTopID: "seventy-percent-rule",
		},
		{
			name:      "no recognized tokens",
			query:     "a of to",
			wantEmpty: true,
		},
		{
			name:      "gibberish matches nothing",
			query:     "zzqxv wvvqk",
			wantEmpty: true,
		},
		{
			name:      "empty query",
			query:     "",
			wantEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := store.Search(tt.query, tt.category, tt.limit)

			if tt.wantEmpty {
				if len(hits) != 0 {
					t.Fatalf("expected no hits, got %d", len(hits))
				}
				return
			}

			if len(hits) == 0 {
				t.Fatalf("expected hits for %q, got none", tt.query)
			}
			if hits[0].DocumentID != tt.wantTopID {
				t.Errorf("top hit = %s, want %s", hits[0].DocumentID, tt.wantTopID)
			}
		})
	}
}

func TestSearchFullOverlapScore(t *testing.T) {
	store := NewDefaultStore()

	hits := store.Search("dscr rental rates", "", 1)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Score != 1.0 {
		t.Errorf("score = %v, want 1.0", hits[0].Score)
	}
}

func TestSearchCategoryFilter(t *testing.T) {
	store := NewDefaultStore()

	hits := store.Search("returns", CategoryInvestmentInfo, 10)
	if len(hits) == 0 {
		t.Fatal("expected investment hits")
	}
	for _, hit := range hits {
		if hit.Category != CategoryInvestmentInfo {
			t.Errorf("hit %s has category %s, want %s", hit.DocumentID, hit.Category, CategoryInvestmentInfo)
		}
	}
}

func TestSearchLimit(t *testing.T) {
	store := NewDefaultStore()

	hits := store.Search("loan", "", 3)
	if len(hits) != 3 {
		t.Errorf("len(hits) = %d, want 3", len(hits))
	}

	// Zero limit falls back to the default
	hits = store.Search("loan", "", 0)
	if len(hits) != DefaultLimit {
		t.Errorf("len(hits) = %d, want %d", len(hits), DefaultLimit)
	}
}

func TestCategoryValid(t *testing.T) {
	for _, category := range Categories() {
		if !category.Valid() {
			t.Errorf("catalog category %s reported invalid", category)
		}
	}
	if Category("mortgage_gossip").Valid() {
		t.Error("unknown category reported valid")
	}
}
