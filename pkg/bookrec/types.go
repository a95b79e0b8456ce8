package bookrec

import "github.com/kailas-cloud/bookrec/internal/domain"

// Tone selects the emotion recommendations are sorted by.
type Tone = domain.Tone

// Tones.
const (
	ToneAll         = domain.ToneAll
	ToneHappy       = domain.ToneHappy
	ToneSurprising  = domain.ToneSurprising
	ToneAngry       = domain.ToneAngry
	ToneSuspenseful = domain.ToneSuspenseful
	ToneSad         = domain.ToneSad
)

// Emotions holds a book's emotion scores. A score missing from the catalog is NaN.
type Emotions = domain.Emotions

// Book is a recommended catalog row.
type Book struct {
	ISBN13         int64
	Title          string
	Authors        string // semicolon-delimited, as in the catalog
	Description    string
	Category       string
	Thumbnail      string
	LargeThumbnail string
	Emotions       Emotions
}

func bookFromDomain(b *domain.Book) Book {
	return Book{
		ISBN13:         b.ISBN13,
		Title:          b.Title,
		Authors:        b.Authors,
		Description:    b.Description,
		Category:       b.Category,
		Thumbnail:      b.Thumbnail,
		LargeThumbnail: b.LargeThumbnail,
		Emotions:       b.Emotions,
	}
}

func bookToDomain(b *Book) domain.Book {
	return domain.Book{
		ISBN13:         b.ISBN13,
		Title:          b.Title,
		Authors:        b.Authors,
		Description:    b.Description,
		Category:       b.Category,
		Thumbnail:      b.Thumbnail,
		LargeThumbnail: b.LargeThumbnail,
		Emotions:       b.Emotions,
	}
}
