// Package citations models the external citation store the decoder consults
// when resolving addCitation tool results. The store is owned by the wider
// application; this package defines the driver contract the decoder needs
// plus reference drivers used by tests and the CLI.
package citations

import "time"

// Citation is one bibliography entry in a library.
type Citation struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Authors    []string  `json:"authors,omitempty"`
	Year       string    `json:"year,omitempty"`
	DOI        string    `json:"doi,omitempty"`
	URL        string    `json:"url,omitempty"`
	AccessedAt time.Time `json:"accessed_at,omitempty"`
	LibraryID  string    `json:"library_id,omitempty"`
}

// Library is a named collection of citations belonging to a project.
type Library struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	ProjectID string     `json:"project_id"`
	Citations []Citation `json:"citations"`
}
