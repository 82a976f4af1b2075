package notes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/nebulaboard/pkg/core"
	"github.com/aretw0/nebulaboard/pkg/typed"
)

// Service is the notes access service.
// It is safe for concurrent use; atomicity comes from the repository.
type Service struct {
	repo   *typed.Repository[Note]
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the random ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewService creates a notes service over repo, which must be declared with Schema.
func NewService(repo core.Repository, opts ...Option) (*Service, error) {
	if repo.Schema().Name != Schema.Name {
		return nil, fmt.Errorf("notes service needs the %q collection, got %q", Schema.Name, repo.Schema().Name)
	}

	s := &Service{
		repo:   typed.NewRepository[Note](repo),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) timestamp() int64 {
	return s.now().UnixMilli()
}

// load returns the collection in primary key order, which is the order ties
// keep after the stable sorts below.
func (s *Service) load(ctx context.Context) ([]Note, error) {
	list, err := s.repo.OrderBy(ctx, Schema.PrimaryKey, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}
	return list, nil
}

// GetAllNotes returns every note, pinned notes first, each partition ordered
// by field. Zero values mean updatedDate and desc.
func (s *Service) GetAllNotes(ctx context.Context, field SortField, order SortOrder) ([]Note, error) {
	if field == "" {
		field = SortByUpdatedDate
	}
	if order == "" {
		order = Desc
	}

	var cmp func(a, b Note) int
	switch field {
	case SortByTitle:
		cmp = func(a, b Note) int { return strings.Compare(a.Title, b.Title) }
	case SortByCreatedDate:
		cmp = func(a, b Note) int { return compareInt(a.CreatedDate, b.CreatedDate) }
	case SortByUpdatedDate:
		cmp = func(a, b Note) int { return compareInt(a.UpdatedDate, b.UpdatedDate) }
	default:
		return nil, fmt.Errorf("unknown sort field %q", field)
	}
	if order != Asc && order != Desc {
		return nil, fmt.Errorf("unknown sort order %q", order)
	}

	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		c := cmp(a, b)
		if order == Desc {
			c = -c
		}
		return c < 0
	})
	return list, nil
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// GetNote returns a single note.
func (s *Service) GetNote(ctx context.Context, id string) (Note, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return Note{}, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

// AddNote stores a new note and returns its generated ID.
func (s *Service) AddNote(ctx context.Context, in NoteInput) (string, error) {
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	now := s.timestamp()
	n := Note{
		ID:          s.newID(),
		Title:       in.Title,
		Content:     in.Content,
		Color:       in.Color,
		IsPinned:    in.IsPinned,
		Tags:        tags,
		CreatedDate: now,
		UpdatedDate: now,
	}

	if err := s.repo.Add(ctx, n); err != nil {
		return "", fmt.Errorf("failed to add note: %w", err)
	}

	s.logger.Debug("note added", "id", n.ID)
	return n.ID, nil
}

// UpdateNote merges patch onto the note and stamps updatedDate.
// createdDate is never touched.
func (s *Service) UpdateNote(ctx context.Context, id string, patch NotePatch) error {
	err := s.repo.Modify(ctx, id, func(current Note) (core.Fields, error) {
		update := patch.fields()
		update["updatedDate"] = s.bump(current.UpdatedDate)
		return typed.ToFields(update)
	})
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	s.logger.Debug("note updated", "id", id)
	return nil
}

// bump returns the next updatedDate, which never goes backwards.
func (s *Service) bump(previous int64) int64 {
	now := s.timestamp()
	if now < previous {
		return previous
	}
	return now
}

// DeleteNote removes a note. Deleting a missing note fails with core.ErrNotFound.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	s.logger.Debug("note deleted", "id", id)
	return nil
}

// TogglePin flips the stored pin flag in one atomic step and returns the new value.
func (s *Service) TogglePin(ctx context.Context, id string) (bool, error) {
	var pinned bool
	err := s.repo.Modify(ctx, id, func(current Note) (core.Fields, error) {
		pinned = !current.IsPinned
		return core.Fields{
			"isPinned":    pinned,
			"updatedDate": float64(s.bump(current.UpdatedDate)),
		}, nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to toggle pin: %w", err)
	}

	s.logger.Debug("note pin toggled", "id", id, "pinned", pinned)
	return pinned, nil
}

// SearchNotes returns the notes whose title, content or any tag contains query,
// ignoring case, most recently updated first. Pin status does not affect the order.
func (s *Service) SearchNotes(ctx context.Context, query string) ([]Note, error) {
	q := strings.ToLower(query)

	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]Note, 0, len(list))
	for _, n := range list {
		if matchesQuery(n, q) {
			matches = append(matches, n)
		}
	}

	sortByUpdatedDesc(matches)
	return matches, nil
}

func matchesQuery(n Note, q string) bool {
	if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
		return true
	}
	for _, t := range n.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func sortByUpdatedDesc(list []Note) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].UpdatedDate > list[j].UpdatedDate
	})
}

// NotesByTag returns the notes carrying exactly tag, most recently updated first.
func (s *Service) NotesByTag(ctx context.Context, tag string) ([]Note, error) {
	list, err := s.repo.Find(ctx, core.Where("tags").Equals(tag))
	if err != nil {
		return nil, fmt.Errorf("failed to find notes by tag: %w", err)
	}
	sortByUpdatedDesc(list)
	return list, nil
}
