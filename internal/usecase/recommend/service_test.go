package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/metrics"
)

// --- Mocks ---

type mockSearcher struct {
	hits  []domain.Hit
	err   error
	gotK  int
	gotQ  string
	calls int
}

func (m *mockSearcher) Search(_ context.Context, text string, k int) ([]domain.Hit, error) {
	m.calls++
	m.gotQ = text
	m.gotK = k
	if m.err != nil {
		return nil, m.err
	}
	if len(m.hits) > k {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func hitsFor(ids ...int64) []domain.Hit {
	hits := make([]domain.Hit, len(ids))
	for i, id := range ids {
		hits[i] = domain.Hit{Content: fmt.Sprintf("%d description of book %d", id, id), Score: 1 - float64(i)/100}
	}
	return hits
}

func mustCatalog(t *testing.T, books ...domain.Book) *domain.Catalog {
	t.Helper()
	c, err := domain.NewCatalog(books)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func book(id int64, category string, joy float64) domain.Book {
	return domain.Book{
		ISBN13:   id,
		Title:    fmt.Sprintf("Title %d", id),
		Authors:  fmt.Sprintf("Author %d", id),
		Category: category,
		Emotions: domain.Emotions{Joy: joy},
	}
}

func isbns(books []domain.Book) []int64 {
	out := make([]int64, len(books))
	for i, b := range books {
		out[i] = b.ISBN13
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Tests ---

func TestRecommend_HappyToneOrdersByJoy(t *testing.T) {
	cat := mustCatalog(t, book(1, "Fiction", 0.9), book(2, "Fiction", 0.1))
	svc := New(cat, &mockSearcher{hits: hitsFor(2, 1)})

	got, err := svc.Recommend(context.Background(), Request{Query: "q", Category: "All", Tone: "Happy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := isbns(got); !equalIDs(ids, []int64{1, 2}) {
		t.Errorf("expected [1 2], got %v", ids)
	}
}

func TestRecommend_PreservesSimilarityOrderWithoutTone(t *testing.T) {
	cat := mustCatalog(t, book(1, "Fiction", 0), book(2, "Fiction", 0), book(3, "Nonfiction", 0))
	svc := New(cat, &mockSearcher{hits: hitsFor(3, 1, 2)})

	got, err := svc.Recommend(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := isbns(got); !equalIDs(ids, []int64{3, 1, 2}) {
		t.Errorf("expected [3 1 2], got %v", ids)
	}
}

func TestRecommend_CategoryFilter(t *testing.T) {
	var books []domain.Book
	var ids []int64
	for i := int64(1); i <= 30; i++ {
		category := "Fiction"
		if i%3 == 0 {
			category = "Nonfiction"
		}
		books = append(books, book(i, category, 0))
		ids = append(ids, i)
	}
	svc := New(mustCatalog(t, books...), &mockSearcher{hits: hitsFor(ids...)})

	got, err := svc.Recommend(context.Background(), Request{Query: "q", Category: "Nonfiction", FinalTopK: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotIDs := isbns(got); !equalIDs(gotIDs, []int64{3, 6, 9, 12}) {
		t.Errorf("expected [3 6 9 12], got %v", gotIDs)
	}
	for _, b := range got {
		if b.Category != "Nonfiction" {
			t.Errorf("book %d has category %q", b.ISBN13, b.Category)
		}
	}
}

func TestRecommend_FinalTopKBound(t *testing.T) {
	var books []domain.Book
	var ids []int64
	for i := int64(1); i <= 40; i++ {
		books = append(books, book(i, "Fiction", float64(i)/40))
		ids = append(ids, i)
	}
	svc := New(mustCatalog(t, books...), &mockSearcher{hits: hitsFor(ids...)})

	got, err := svc.Recommend(context.Background(), Request{Query: "q", Tone: "Happy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != DefaultFinalTopK {
		t.Fatalf("expected %d rows, got %d", DefaultFinalTopK, len(got))
	}
	// Truncation precedes sorting: only the 16 most similar rows are eligible.
	for _, b := range got {
		if b.ISBN13 > DefaultFinalTopK {
			t.Errorf("book %d was re-admitted by tone sort", b.ISBN13)
		}
	}
	if got[0].ISBN13 != DefaultFinalTopK {
		t.Errorf("expected highest-joy eligible book first, got %d", got[0].ISBN13)
	}
}

func TestRecommend_StableSortKeepsTies(t *testing.T) {
	cat := mustCatalog(t, book(1, "F", 0.5), book(2, "F", 0.5), book(3, "F", 0.9), book(4, "F", 0.5))
	svc := New(cat, &mockSearcher{hits: hitsFor(4, 2, 3, 1)})

	got, err := svc.Recommend(context.Background(), Request{Query: "q", Tone: "Happy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := isbns(got); !equalIDs(ids, []int64{3, 4, 2, 1}) {
		t.Errorf("expected [3 4 2 1], got %v", ids)
	}
}

func TestRecommend_MissingScoreSortsLast(t *testing.T) {
	cat := mustCatalog(t, book(1, "F", math.NaN()), book(2, "F", 0), book(3, "F", 0.4), book(4, "F", math.NaN()))
	svc := New(cat, &mockSearcher{hits: hitsFor(1, 2, 3, 4)})

	got, err := svc.Recommend(context.Background(), Request{Query: "q", Tone: "Happy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := isbns(got); !equalIDs(ids, []int64{3, 2, 1, 4}) {
		t.Errorf("expected [3 2 1 4], got %v", ids)
	}

	got, err = svc.Recommend(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := isbns(got); !equalIDs(ids, []int64{1, 2, 3, 4}) {
		t.Errorf("without a tone expected similarity order, got %v", ids)
	}
}

func TestRecommend_ToneScores(t *testing.T) {
	b1 := domain.Book{ISBN13: 1, Emotions: domain.Emotions{Joy: 0.1, Surprise: 0.9, Anger: 0.1, Fear: 0.9, Sadness: 0.1}}
	b2 := domain.Book{ISBN13: 2, Emotions: domain.Emotions{Joy: 0.9, Surprise: 0.1, Anger: 0.9, Fear: 0.1, Sadness: 0.9}}
	svc := New(mustCatalog(t, b1, b2), &mockSearcher{hits: hitsFor(1, 2)})

	tests := []struct {
		tone string
		want []int64
	}{
		{"Happy", []int64{2, 1}},
		{"Surprising", []int64{1, 2}},
		{"Angry", []int64{2, 1}},
		{"Suspenseful", []int64{1, 2}},
		{"Sad", []int64{2, 1}},
		{"All", []int64{1, 2}},
		{"", []int64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.tone, func(t *testing.T) {
			got, err := svc.Recommend(context.Background(), Request{Query: "q", Tone: tt.tone})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ids := isbns(got); !equalIDs(ids, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ids)
			}
		})
	}
}

func TestRecommend_SkipsUnknownAndDuplicateIDs(t *testing.T) {
	cat := mustCatalog(t, book(1, "F", 0), book(2, "F", 0))
	svc := New(cat, &mockSearcher{hits: hitsFor(99, 2, 2, 1)})

	got, err := svc.Recommend(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := isbns(got); !equalIDs(ids, []int64{2, 1}) {
		t.Errorf("expected [2 1], got %v", ids)
	}
}

func TestRecommend_ResultRowsMatchCatalog(t *testing.T) {
	cat := mustCatalog(t, book(1, "F", 0), book(2, "F", 0))
	svc := New(cat, &mockSearcher{hits: hitsFor(1, 2)})

	got, err := svc.Recommend(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, b := range got {
		orig, ok := cat.Get(b.ISBN13)
		if !ok {
			t.Fatalf("book %d not in catalog", b.ISBN13)
		}
		if orig.Title != b.Title || orig.Authors != b.Authors {
			t.Errorf("book %d differs from catalog row", b.ISBN13)
		}
	}
}

func TestRecommend_EmptyResultIsNotError(t *testing.T) {
	cat := mustCatalog(t, book(1, "Fiction", 0), book(2, "Nonfiction", 0))
	svc := New(cat, &mockSearcher{hits: hitsFor(1)})

	got, err := svc.Recommend(context.Background(), Request{Query: "q", Category: "Nonfiction"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", isbns(got))
	}
}

func TestRecommend_MalformedRecordPropagates(t *testing.T) {
	cat := mustCatalog(t, book(1, "F", 0))
	svc := New(cat, &mockSearcher{hits: []domain.Hit{{Content: "1 fine"}, {Content: "oops not an id"}}})

	_, err := svc.Recommend(context.Background(), Request{Query: "q"})
	if !errors.Is(err, domain.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestRecommend_InvalidInput(t *testing.T) {
	cat := mustCatalog(t, book(1, "Fiction", 0))

	tests := []struct {
		name string
		req  Request
	}{
		{"empty query", Request{Query: ""}},
		{"blank query", Request{Query: "  \t "}},
		{"unknown tone", Request{Query: "q", Tone: "Bored"}},
		{"unknown category", Request{Query: "q", Category: "Poetry"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &mockSearcher{}
			svc := New(cat, s)

			_, err := svc.Recommend(context.Background(), tt.req)
			if !errors.Is(err, domain.ErrInvalidQuery) {
				t.Fatalf("expected ErrInvalidQuery, got %v", err)
			}
			if s.calls != 0 {
				t.Errorf("searcher should not be called on invalid input")
			}
		})
	}
}

func TestRecommend_SearchErrorPropagates(t *testing.T) {
	cat := mustCatalog(t, book(1, "F", 0))
	svc := New(cat, &mockSearcher{err: domain.ErrEmbeddingProviderError})

	_, err := svc.Recommend(context.Background(), Request{Query: "q"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestRecommend_TopKDefaultsAndClamp(t *testing.T) {
	cat := mustCatalog(t, book(1, "F", 0))

	s := &mockSearcher{}
	svc := New(cat, s)
	if _, err := svc.Recommend(context.Background(), Request{Query: " forgiveness "}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.gotK != DefaultInitialTopK || s.gotQ != "forgiveness" {
		t.Errorf("expected k=%d q=forgiveness, got k=%d q=%q", DefaultInitialTopK, s.gotK, s.gotQ)
	}

	svc = New(cat, s).WithDefaults(20, 8)
	if _, err := svc.Recommend(context.Background(), Request{Query: "q"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.gotK != 20 {
		t.Errorf("expected configured default 20, got %d", s.gotK)
	}

	initial, final := svc.limits(Request{InitialTopK: 5, FinalTopK: 10})
	if initial != 5 || final != 5 {
		t.Errorf("expected final clamped to 5, got %d/%d", initial, final)
	}
}

func TestRecommend_Metrics(t *testing.T) {
	cat := mustCatalog(t, book(1, "Fiction", 0))
	svc := New(cat, &mockSearcher{hits: hitsFor(1)})

	okCounter := metrics.RecommendationsTotal.WithLabelValues("Sad", "true", "ok")
	invalidCounter := metrics.RecommendationsTotal.WithLabelValues("Sad", "false", "invalid")
	okBefore := testutil.ToFloat64(okCounter)
	invalidBefore := testutil.ToFloat64(invalidCounter)

	if _, err := svc.Recommend(context.Background(), Request{Query: "q", Category: "Fiction", Tone: "Sad"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Recommend(context.Background(), Request{Query: "", Tone: "Sad"}); err == nil {
		t.Fatal("expected error")
	}

	if got := testutil.ToFloat64(okCounter) - okBefore; got != 1 {
		t.Errorf("expected 1 ok recommendation, got %v", got)
	}
	if got := testutil.ToFloat64(invalidCounter) - invalidBefore; got != 1 {
		t.Errorf("expected 1 invalid recommendation, got %v", got)
	}
}

func TestLeadingISBN(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"9780002005883 A NOVEL THAT READERS", 9780002005883, false},
		{`"9780002261982 Spider's Web"`, 9780002261982, false},
		{"  42\tTabs", 42, false},
		{"", 0, true},
		{"abc 123", 0, true},
		{"12.5 fraction", 0, true},
	}
	for _, tt := range tests {
		got, err := LeadingISBN(tt.in)
		if tt.wantErr {
			if !errors.Is(err, domain.ErrMalformedRecord) {
				t.Errorf("LeadingISBN(%q): expected ErrMalformedRecord, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("LeadingISBN(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
}
