// Package notes provides the access service of the notes collection:
// CRUD, pinning, sorting and search over a core.Repository.
package notes

import "github.com/aretw0/nebulaboard/pkg/core"

// Schema declares the notes collection and its indexes.
var Schema = core.MustParseSchema("notes", "id, title, isPinned, createdDate, updatedDate, *tags")

// Note is a free-form note. Timestamps are Unix milliseconds.
type Note struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Color       string   `json:"color"`
	IsPinned    bool     `json:"isPinned"`
	Tags        []string `json:"tags"`
	CreatedDate int64    `json:"createdDate"`
	UpdatedDate int64    `json:"updatedDate"`
}

// NoteInput holds the caller-provided fields of a new note.
type NoteInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Color    string   `json:"color"`
	IsPinned bool     `json:"isPinned"`
	Tags     []string `json:"tags"`
}

// NotePatch holds a partial update. Nil fields are left untouched;
// a non-nil empty Tags clears the tags.
type NotePatch struct {
	Title    *string
	Content  *string
	Color    *string
	IsPinned *bool
	Tags     []string
}

func (p NotePatch) fields() map[string]any {
	out := make(map[string]any, 5)
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Content != nil {
		out["content"] = *p.Content
	}
	if p.Color != nil {
		out["color"] = *p.Color
	}
	if p.IsPinned != nil {
		out["isPinned"] = *p.IsPinned
	}
	if p.Tags != nil {
		out["tags"] = p.Tags
	}
	return out
}

// SortField selects the field getAllNotes orders by.
type SortField string

const (
	SortByUpdatedDate SortField = "updatedDate"
	SortByCreatedDate SortField = "createdDate"
	SortByTitle       SortField = "title"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)
