// Package catalog loads the book metadata table from CSV.
package catalog

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"github.com/kailas-cloud/bookrec/internal/domain"
)

// Column names expected in the catalog header.
const (
	ColISBN13      = "isbn13"
	ColThumbnail   = "thumbnail"
	ColAuthors     = "authors"
	ColTitle       = "title"
	ColDescription = "description"
	ColCategory    = "simple_categories"
	ColJoy         = "joy"
	ColSurprise    = "surprise"
	ColAnger       = "anger"
	ColFear        = "fear"
	ColSadness     = "sadness"
)

var requiredColumns = []string{
	ColISBN13, ColThumbnail, ColAuthors, ColTitle, ColDescription, ColCategory,
	ColJoy, ColSurprise, ColAnger, ColFear, ColSadness,
}

// Loader reads catalog CSV files into a domain.Catalog.
type Loader struct {
	placeholder string
	suffix      string
}

// NewLoader creates a loader. placeholder replaces missing thumbnails;
// suffix is appended to present ones to request the large rendition.
func NewLoader(placeholder, suffix string) *Loader {
	return &Loader{placeholder: placeholder, suffix: suffix}
}

// LoadFile opens path and loads it.
func (l *Loader) LoadFile(path string) (*domain.Catalog, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return l.Load(f)
}

// Load parses CSV from r. Every value is read as a string; numeric columns are
// parsed here so that a bad cell reports its row and column.
func (l *Loader) Load(r io.Reader) (*domain.Catalog, error) {
	df := dataframe.ReadCSV(r, dataframe.DetectTypes(false), dataframe.HasHeader(true))
	if df.Err != nil {
		return nil, fmt.Errorf("read catalog csv: %w: %w", domain.ErrCatalogInvalid, df.Err)
	}

	cols, err := columns(df)
	if err != nil {
		return nil, err
	}

	books := make([]domain.Book, 0, df.Nrow())
	for i := range df.Nrow() {
		b, err := l.row(cols, i)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		books = append(books, b)
	}

	cat, err := domain.NewCatalog(books)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	return cat, nil
}

func columns(df dataframe.DataFrame) (map[string][]string, error) {
	present := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		present[name] = true
	}

	var missing []string
	for _, name := range requiredColumns {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns %s: %w", strings.Join(missing, ", "), domain.ErrCatalogInvalid)
	}

	cols := make(map[string][]string, len(requiredColumns))
	for _, name := range requiredColumns {
		cols[name] = df.Col(name).Records()
	}
	return cols, nil
}

func (l *Loader) row(cols map[string][]string, i int) (domain.Book, error) {
	get := func(name string) string { return value(cols[name][i]) }

	isbn, err := parseISBN(get(ColISBN13))
	if err != nil {
		return domain.Book{}, err
	}

	b := domain.Book{
		ISBN13:      isbn,
		Title:       get(ColTitle),
		Authors:     get(ColAuthors),
		Description: get(ColDescription),
		Category:    get(ColCategory),
		Thumbnail:   get(ColThumbnail),
	}
	b.LargeThumbnail = l.largeThumbnail(b.Thumbnail)

	scores := []struct {
		col string
		dst *float64
	}{
		{ColJoy, &b.Emotions.Joy},
		{ColSurprise, &b.Emotions.Surprise},
		{ColAnger, &b.Emotions.Anger},
		{ColFear, &b.Emotions.Fear},
		{ColSadness, &b.Emotions.Sadness},
	}
	for _, s := range scores {
		v, err := parseScore(get(s.col))
		if err != nil {
			return domain.Book{}, fmt.Errorf("column %s: %w", s.col, err)
		}
		*s.dst = v
	}

	return b, nil
}

func (l *Loader) largeThumbnail(thumb string) string {
	if thumb == "" {
		return l.placeholder
	}
	return thumb + l.suffix
}

// value normalises the missing-value markers gota and pandas exports produce.
func value(s string) string {
	switch s {
	case "", "NaN", "NA", "<nil>":
		return ""
	}
	return s
}

func parseISBN(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("missing isbn13: %w", domain.ErrCatalogInvalid)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	// Some exports write integer columns as floats ("9780002005883.0").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, fmt.Errorf("isbn13 %q is not an integer: %w", s, domain.ErrCatalogInvalid)
	}
	return int64(f), nil
}

// parseScore reads an emotion score; a missing score is NaN.
func parseScore(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("score %q is not a number: %w", s, domain.ErrCatalogInvalid)
	}
	return v, nil
}
