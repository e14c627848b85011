package config

const (
	// DefaultDatabasePath is the default path for the local application database.
	DefaultDatabasePath = "./edushelf.db"

	// DefaultCatalogueBaseURL is the public OpenLibrary endpoint.
	DefaultCatalogueBaseURL = "https://openlibrary.org"

	// DefaultCatalogueUserAgent identifies this client on every catalogue request.
	DefaultCatalogueUserAgent = "Edushelf/1.0 (contact@example.com)"
)
