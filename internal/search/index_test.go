package search

import (
	"fmt"
	"testing"
)

func TestNewIndex_SkipsEmptyAndDuplicateDocs(t *testing.T) {
	idx := NewIndex([]Doc{
		{Barcode: "", Text: "ignored"},
		{Barcode: "b1", Text: "daily sunscreen spf 50"},
		{Barcode: "b1", Text: "duplicate barcode"},
		{Barcode: "b2", Text: "   "},
		{Barcode: "b3", Text: "gentle dish soap lemon"},
	})
	if idx.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", idx.Len())
	}
}

func TestNewIndex_MaxDocsCap(t *testing.T) {
	docs := make([]Doc, 10)
	for i := range docs {
		docs[i] = Doc{Barcode: fmt.Sprintf("b%d", i), Text: fmt.Sprintf("product %d", i)}
	}
	idx := NewIndex(docs, WithMaxDocs(4))
	if idx.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", idx.Len())
	}
}

func TestTopK_RanksByJaccard(t *testing.T) {
	idx := NewIndex([]Doc{
		{Barcode: "soap", Text: "gentle dish soap lemon"},
		{Barcode: "sunscreen", Text: "daily sunscreen spf 50 sensitive skin"},
		{Barcode: "lotion", Text: "sun lotion spf 30"},
	})

	got := idx.TopK("sunscreen spf 50", 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Barcode != "sunscreen" {
		t.Fatalf("top = %q", got[0].Barcode)
	}
	if got[1].Barcode != "lotion" {
		t.Fatalf("second = %q", got[1].Barcode)
	}
	if got[0].Score <= got[1].Score {
		t.Fatalf("scores not descending: %v then %v", got[0].Score, got[1].Score)
	}
}

func TestTopK_TieBreaksAreDeterministic(t *testing.T) {
	idx := NewIndex([]Doc{
		{Barcode: "z-long", Text: "mint toothpaste whitening family size"},
		{Barcode: "a-short", Text: "mint toothpaste"},
	})

	// Both overlap on "mint toothpaste"; the terser doc scores higher
	// (smaller union), so it must come first on every run.
	for i := 0; i < 5; i++ {
		got := idx.TopK("mint toothpaste", 2)
		if len(got) != 2 || got[0].Barcode != "a-short" {
			t.Fatalf("run %d: got %+v", i, got)
		}
	}
}

func TestTopK_EdgeCases(t *testing.T) {
	idx := NewIndex([]Doc{{Barcode: "b1", Text: "daily sunscreen"}})

	if got := idx.TopK("", 3); got != nil {
		t.Fatalf("empty query: %+v", got)
	}
	if got := idx.TopK("   ", 3); got != nil {
		t.Fatalf("blank query: %+v", got)
	}
	if got := idx.TopK("!!!", 3); got != nil {
		t.Fatalf("symbol-only query: %+v", got)
	}
	if got := idx.TopK("completely unrelated", 3); got != nil {
		t.Fatalf("no-overlap query: %+v", got)
	}
	// k <= 0 falls back to a small default rather than panicking
	if got := idx.TopK("sunscreen", 0); len(got) != 1 {
		t.Fatalf("k=0 fallback: %+v", got)
	}

	empty := NewIndex(nil)
	if got := empty.TopK("sunscreen", 3); got != nil {
		t.Fatalf("empty index: %+v", got)
	}
}

func TestTopK_StopwordsRemoved(t *testing.T) {
	idx := NewIndex([]Doc{
		{Barcode: "b1", Text: "the original sunscreen for kids"},
	}, WithStopwords(DefaultStopwords))

	// "the", "original", "for" vanish from both sides; only content words
	// are compared.
	got := idx.TopK("the sunscreen kids", 1)
	if len(got) != 1 || got[0].Score != 1 {
		t.Fatalf("got %+v, want full overlap", got)
	}
}
