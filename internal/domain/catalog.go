package domain

import (
	"fmt"
	"sort"
)

// AllCategories is the category sentinel that disables category filtering.
const AllCategories = "All"

// Catalog is the read-only, in-memory book table.
// Safe for concurrent reads once constructed.
type Catalog struct {
	books      []Book
	byISBN     map[int64]int
	categories []string
}

// NewCatalog builds a catalog from rows in file order.
// Duplicate ISBNs are rejected: the ISBN is the join key with the description index.
func NewCatalog(books []Book) (*Catalog, error) {
	c := &Catalog{
		books:  make([]Book, len(books)),
		byISBN: make(map[int64]int, len(books)),
	}
	copy(c.books, books)

	seen := make(map[string]struct{})
	for i, b := range c.books {
		if _, dup := c.byISBN[b.ISBN13]; dup {
			return nil, fmt.Errorf("duplicate isbn13 %d: %w", b.ISBN13, ErrCatalogInvalid)
		}
		c.byISBN[b.ISBN13] = i

		if b.Category == "" {
			continue
		}
		if _, ok := seen[b.Category]; !ok {
			seen[b.Category] = struct{}{}
			c.categories = append(c.categories, b.Category)
		}
	}
	sort.Strings(c.categories)

	return c, nil
}

// Len returns the number of books.
func (c *Catalog) Len() int { return len(c.books) }

// Books returns the rows in file order. Callers must not modify the slice.
func (c *Catalog) Books() []Book { return c.books }

// Get returns the book with the given ISBN.
func (c *Catalog) Get(isbn int64) (Book, bool) {
	i, ok := c.byISBN[isbn]
	if !ok {
		return Book{}, false
	}
	return c.books[i], true
}

// Categories returns the sorted unique category labels present in the data.
func (c *Catalog) Categories() []string { return c.categories }

// HasCategory reports whether the label occurs in the catalog.
func (c *Catalog) HasCategory(category string) bool {
	i := sort.SearchStrings(c.categories, category)
	return i < len(c.categories) && c.categories[i] == category
}
