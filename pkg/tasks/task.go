// Package tasks provides the access service of the tasks collection and of
// its rich-text note sub-collection.
package tasks

import (
	"errors"
	"strings"
	"unicode"

	"github.com/aretw0/nebulaboard/pkg/core"
)

var (
	// Schema declares the tasks collection and its indexes.
	Schema = core.MustParseSchema("tasks", "id, status, createdDate, priority")
	// RichTextSchema declares the rich-text notes collection.
	RichTextSchema = core.MustParseSchema("richtext", "id, updatedDate")
)

// ErrInvalidValue is returned for a status, priority or filter outside its enumeration.
var ErrInvalidValue = errors.New("invalid value")

// Status is the progress state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// FilterAll disables a filter dimension.
const FilterAll = "all"

// Filter narrows ListTasks. Empty or FilterAll fields match everything.
type Filter struct {
	Status   string
	Priority string
}

// Task is a unit of work. CreatedDate and Deadline are Unix milliseconds,
// EstimatedTime is in minutes.
type Task struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Status        Status   `json:"status"`
	CreatedDate   int64    `json:"createdDate"`
	Priority      Priority `json:"priority"`
	Tags          []string `json:"tags"`
	Deadline      *int64   `json:"deadline,omitempty"`
	EstimatedTime *int     `json:"estimatedTime,omitempty"`
}

// TaskInput holds the caller-provided fields of a new task.
// Empty Status and Priority default to todo and medium.
type TaskInput struct {
	Title         string
	Status        Status
	Priority      Priority
	Tags          []string
	Deadline      *int64
	EstimatedTime *int
}

// TaskPatch holds a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title         *string
	Status        *Status
	Priority      *Priority
	Tags          []string
	Deadline      *int64
	EstimatedTime *int
}

func (p TaskPatch) fields() (map[string]any, error) {
	out := make(map[string]any, 6)
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, invalid("status", string(*p.Status))
		}
		out["status"] = string(*p.Status)
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return nil, invalid("priority", string(*p.Priority))
		}
		out["priority"] = string(*p.Priority)
	}
	if p.Tags != nil {
		out["tags"] = p.Tags
	}
	if p.Deadline != nil {
		out["deadline"] = *p.Deadline
	}
	if p.EstimatedTime != nil {
		out["estimatedTime"] = *p.EstimatedTime
	}
	return out, nil
}

// RichTextNote is a free-standing rich-text document.
type RichTextNote struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	UpdatedDate int64  `json:"updatedDate"`
}

// RichTextPatch holds a partial update of a rich-text note.
type RichTextPatch struct {
	Title   *string
	Content *string
}

// Choice is a selectable value with its display label.
type Choice struct {
	Value string
	Label string
}

// StatusOptions lists the task statuses in display order.
func StatusOptions() []Choice {
	return []Choice{
		{Value: string(StatusTodo), Label: "Todo"},
		{Value: string(StatusInProgress), Label: "In Progress"},
		{Value: string(StatusDone), Label: "Done"},
	}
}

// PriorityOptions lists the task priorities in display order.
func PriorityOptions() []Choice {
	return []Choice{
		{Value: string(PriorityLow), Label: "Low"},
		{Value: string(PriorityMedium), Label: "Medium"},
		{Value: string(PriorityHigh), Label: "High"},
	}
}

// FormatStatus turns a status value into a label: the first underscore
// becomes a space and every word is capitalized ("in_progress" -> "In Progress").
func FormatStatus(status string) string {
	s := []rune(strings.Replace(status, "_", " ", 1))
	for i, r := range s {
		if isWordRune(r) && (i == 0 || !isWordRune(s[i-1])) {
			s[i] = unicode.ToUpper(r)
		}
	}
	return string(s)
}

func isWordRune(r rune) bool {
	return r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
}
