package generations

import "time"

// Generation records one generated CV document.
type Generation struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Source     string    `json:"source"`
	Path       string    `json:"cv_path"`
	ArchiveKey string    `json:"archive_key,omitempty"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}
