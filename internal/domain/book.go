package domain

// Book is a single catalog row. Rows are loaded once at startup and never mutated.
type Book struct {
	ISBN13         int64
	Title          string
	Authors        string // raw, semicolon-delimited; empty when missing
	Description    string
	Category       string
	Thumbnail      string // empty when missing
	LargeThumbnail string // never empty after loading
	Emotions       Emotions
}

// Emotions holds the precomputed per-book emotion scores (higher = stronger).
// A missing score is NaN; tone sorting puts it after every scored book.
type Emotions struct {
	Joy      float64
	Surprise float64
	Anger    float64
	Fear     float64
	Sadness  float64
}

// Hit is a single similarity-search match: the stored payload text and its score.
type Hit struct {
	Content string
	Score   float64
}

// DescriptionRecord is one line of the tagged description corpus with its embedding.
// Content is stored verbatim; its leading token is the ISBN that joins back to the catalog.
type DescriptionRecord struct {
	Line    int
	Content string
	Vector  []float32
}
