package catalogue

import (
	"strings"

	"github.com/avelkine/edushelf/internal/entities"
)

// CategoryAll is the sentinel category label matching every subject.
const CategoryAll = "All"

// Filter narrows a fetched list by free-text query and category label. A book
// matches when the query is a case-insensitive substring of the title or the
// first author name, and the category either is the sentinel or appears in
// the book's subject list. The filter is pure and re-derived on every call;
// its result is never persisted.
func Filter(books []entities.Book, query, category string) []entities.Book {
	query = strings.ToLower(strings.TrimSpace(query))

	matched := make([]entities.Book, 0, len(books))
	for _, book := range books {
		if !matchesQuery(book, query) {
			continue
		}
		if !matchesCategory(book, category) {
			continue
		}
		matched = append(matched, book)
	}
	return matched
}

func matchesQuery(book entities.Book, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(book.Title), query) {
		return true
	}
	if len(book.AuthorNames) > 0 &&
		strings.Contains(strings.ToLower(book.AuthorNames[0]), query) {
		return true
	}
	return false
}

func matchesCategory(book entities.Book, category string) bool {
	if category == "" || category == CategoryAll {
		return true
	}
	for _, subject := range book.Subjects {
		if strings.EqualFold(subject, category) {
			return true
		}
	}
	return false
}
