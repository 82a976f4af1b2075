package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/nebulaboard/pkg/core"
	"github.com/aretw0/nebulaboard/pkg/typed"
)

// Service is the tasks access service. It also owns the rich-text notes.
type Service struct {
	tasks  *typed.Repository[Task]
	rich   *typed.Repository[RichTextNote]
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

// NewService creates a tasks service. tasksRepo must be declared with Schema
// and richRepo with RichTextSchema.
func NewService(tasksRepo, richRepo core.Repository, opts ...Option) (*Service, error) {
	if got := tasksRepo.Schema().Name; got != Schema.Name {
		return nil, fmt.Errorf("tasks service needs the %q collection, got %q", Schema.Name, got)
	}
	if got := richRepo.Schema().Name; got != RichTextSchema.Name {
		return nil, fmt.Errorf("tasks service needs the %q collection, got %q", RichTextSchema.Name, got)
	}

	s := &Service{
		tasks:  typed.NewRepository[Task](tasksRepo),
		rich:   typed.NewRepository[RichTextNote](richRepo),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func invalid(field, value string) error {
	return fmt.Errorf("%s %q: %w", field, value, ErrInvalidValue)
}

// AddTask stores a new task and returns its generated ID.
func (s *Service) AddTask(ctx context.Context, in TaskInput) (string, error) {
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !in.Status.Valid() {
		return "", invalid("status", string(in.Status))
	}
	if !in.Priority.Valid() {
		return "", invalid("priority", string(in.Priority))
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}

	t := Task{
		ID:            s.newID(),
		Title:         in.Title,
		Status:        in.Status,
		CreatedDate:   s.now().UnixMilli(),
		Priority:      in.Priority,
		Tags:          in.Tags,
		Deadline:      in.Deadline,
		EstimatedTime: in.EstimatedTime,
	}
	if err := s.tasks.Add(ctx, t); err != nil {
		return "", fmt.Errorf("failed to add task: %w", err)
	}

	s.logger.Debug("task added", "id", t.ID, "status", t.Status, "priority", t.Priority)
	return t.ID, nil
}

// GetTask returns a single task.
func (s *Service) GetTask(ctx context.Context, id string) (Task, error) {
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		return Task{}, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// UpdateTask merges patch onto the task. createdDate is never touched.
func (s *Service) UpdateTask(ctx context.Context, id string, patch TaskPatch) error {
	update, err := patch.fields()
	if err != nil {
		return err
	}
	fields, err := typed.ToFields(update)
	if err != nil {
		return err
	}
	if err := s.tasks.Update(ctx, id, fields); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Debug("task updated", "id", id)
	return nil
}

// SetStatus moves a task to status.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) error {
	return s.UpdateTask(ctx, id, TaskPatch{Status: &status})
}

// DeleteTask removes a task, or fails with core.ErrNotFound.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Debug("task deleted", "id", id)
	return nil
}

func normalizeFilter(v string) string {
	if v == FilterAll {
		return ""
	}
	return v
}

// ListTasks returns the tasks matching f, newest first.
func (s *Service) ListTasks(ctx context.Context, f Filter) ([]Task, error) {
	status := normalizeFilter(f.Status)
	priority := normalizeFilter(f.Priority)
	if status != "" && !Status(status).Valid() {
		return nil, invalid("status filter", status)
	}
	if priority != "" && !Priority(priority).Valid() {
		return nil, invalid("priority filter", priority)
	}

	var (
		list []Task
		err  error
	)
	switch {
	case status != "":
		list, err = s.tasks.Find(ctx, core.Where("status").Equals(status))
	case priority != "":
		list, err = s.tasks.Find(ctx, core.Where("priority").Equals(priority))
	default:
		list, err = s.tasks.OrderBy(ctx, "createdDate", true)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	if status != "" && priority != "" {
		filtered := list[:0]
		for _, t := range list {
			if string(t.Priority) == priority {
				filtered = append(filtered, t)
			}
		}
		list = filtered
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedDate > list[j].CreatedDate
	})
	return list, nil
}

// ClearCompleted deletes every done task with a single write and returns how
// many were removed.
func (s *Service) ClearCompleted(ctx context.Context) (int, error) {
	done, err := s.tasks.Find(ctx, core.Where("status").Equals(string(StatusDone)))
	if err != nil {
		return 0, fmt.Errorf("failed to find completed tasks: %w", err)
	}
	if len(done) == 0 {
		return 0, nil
	}

	err = s.tasks.WithTransaction(ctx, func(tx *typed.Transaction[Task]) error {
		for _, t := range done {
			if err := tx.Delete(ctx, t.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clear completed tasks: %w", err)
	}

	s.logger.Debug("completed tasks cleared", "count", len(done))
	return len(done), nil
}

// AddRichNote stores a new rich-text note and returns its ID.
func (s *Service) AddRichNote(ctx context.Context, title, content string) (string, error) {
	n := RichTextNote{
		ID:          s.newID(),
		Title:       title,
		Content:     content,
		UpdatedDate: s.now().UnixMilli(),
	}
	if err := s.rich.Add(ctx, n); err != nil {
		return "", fmt.Errorf("failed to add rich text note: %w", err)
	}

	s.logger.Debug("rich text note added", "id", n.ID)
	return n.ID, nil
}

// GetRichNote returns a single rich-text note.
func (s *Service) GetRichNote(ctx context.Context, id string) (RichTextNote, error) {
	n, err := s.rich.Get(ctx, id)
	if err != nil {
		return RichTextNote{}, fmt.Errorf("failed to get rich text note: %w", err)
	}
	return n, nil
}

// UpdateRichNote merges patch and stamps updatedDate, which never goes backwards.
func (s *Service) UpdateRichNote(ctx context.Context, id string, patch RichTextPatch) error {
	err := s.rich.Modify(ctx, id, func(current RichTextNote) (core.Fields, error) {
		fields := core.Fields{}
		if patch.Title != nil {
			fields["title"] = *patch.Title
		}
		if patch.Content != nil {
			fields["content"] = *patch.Content
		}
		now := s.now().UnixMilli()
		if now < current.UpdatedDate {
			now = current.UpdatedDate
		}
		fields["updatedDate"] = float64(now)
		return fields, nil
	})
	if err != nil {
		return fmt.Errorf("failed to update rich text note: %w", err)
	}
	return nil
}

// DeleteRichNote removes a rich-text note, or fails with core.ErrNotFound.
func (s *Service) DeleteRichNote(ctx context.Context, id string) error {
	if err := s.rich.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete rich text note: %w", err)
	}
	return nil
}

// ListRichNotes returns the rich-text notes, most recently updated first.
func (s *Service) ListRichNotes(ctx context.Context) ([]RichTextNote, error) {
	list, err := s.rich.OrderBy(ctx, "updatedDate", true)
	if err != nil {
		return nil, fmt.Errorf("failed to list rich text notes: %w", err)
	}
	return list, nil
}
