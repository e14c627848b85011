package entities

// Book is a single catalogue record as returned by the OpenLibrary search
// endpoint. Records are immutable once fetched and identified by Key, which is
// server-assigned (typically "/works/OL...W"). Field names follow the upstream
// wire format so the same struct round-trips through the favorites store.
type Book struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_name,omitempty"`
	CoverID          int      `json:"cover_i,omitempty"`
	FirstPublishYear int      `json:"first_publish_year,omitempty"`
	Subjects         []string `json:"subject,omitempty"`
	ISBNs            []string `json:"isbn,omitempty"`
	Publishers       []string `json:"publisher,omitempty"`
}

// BookDetail is the lazily fetched per-work description, keyed by the owning
// book's Key.
type BookDetail struct {
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
}
