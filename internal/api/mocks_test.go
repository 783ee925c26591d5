package api

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wellesley-hci/lexi-api/internal/domain"
	"github.com/wellesley-hci/lexi-api/internal/store"
)

// Minimal in-memory fakes for handler tests. They mirror the sentinel-error
// contracts of the real stores.

type fakeWorkspaces struct {
	items     []*domain.Workspace
	createErr error
}

func (f *fakeWorkspaces) Create(_ context.Context, ws *domain.Workspace) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.items = append(f.items, ws)
	return nil
}

func (f *fakeWorkspaces) GetByID(_ context.Context, id uuid.UUID) (*domain.Workspace, error) {
	for _, ws := range f.items {
		if ws.ID == id {
			return ws, nil
		}
	}
	return nil, store.ErrWorkspaceNotFound
}

func (f *fakeWorkspaces) List(_ context.Context) ([]*domain.Workspace, error) {
	return f.items, nil
}

type fakeUsers struct {
	items []*domain.User
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) error {
	for _, u := range f.items {
		if u.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	f.items = append(f.items, user)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range f.items {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.items {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUsers) Update(_ context.Context, user *domain.User) error {
	for i, u := range f.items {
		if u.ID == user.ID {
			f.items[i] = user
			return nil
		}
	}
	return store.ErrUserNotFound
}

func (f *fakeUsers) Eligible(_ context.Context, role string) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range f.items {
		if u.Role == role && u.Status == domain.UserStatusActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) CountEligible(ctx context.Context, role string) (int, error) {
	out, err := f.Eligible(ctx, role)
	return len(out), err
}

type fakeColumns struct {
	m map[string]string
}

func newFakeColumns() *fakeColumns { return &fakeColumns{m: make(map[string]string)} }

func (f *fakeColumns) SaveMapping(_ context.Context, workspaceID uuid.UUID, questionText, column string) error {
	f.m[workspaceID.String()+"|"+questionText] = column
	return nil
}

func (f *fakeColumns) ColumnFor(_ context.Context, workspaceID uuid.UUID, questionText string) (string, error) {
	col, ok := f.m[workspaceID.String()+"|"+questionText]
	if !ok {
		return "", store.ErrColumnNotFound
	}
	return col, nil
}

// fakeResponses records lifecycle calls and serves canned task lists.
type fakeResponses struct {
	store.ResponseStore

	tasks []*domain.Task

	respondedTask   uuid.UUID
	respondedStatus domain.TaskStatus
	respondErr      error

	completedTask    uuid.UUID
	completedAnswers map[string]string
	completeErr      error
}

func (f *fakeResponses) TasksForUser(_ context.Context, _ *domain.Workspace, _ string, userID uuid.UUID) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range f.tasks {
		if t.UserID != nil && *t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeResponses) MarkResponded(_ context.Context, _ *domain.Workspace, taskID uuid.UUID, status domain.TaskStatus, _ time.Time) error {
	if f.respondErr != nil {
		return f.respondErr
	}
	f.respondedTask = taskID
	f.respondedStatus = status
	return nil
}

func (f *fakeResponses) MarkCompleted(_ context.Context, _ *domain.Workspace, taskID uuid.UUID, answers map[string]string, _, _ *float64, _ time.Time) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completedTask = taskID
	f.completedAnswers = answers
	return nil
}

type fakeProvisioner struct {
	err   error
	calls int
}

func (f *fakeProvisioner) EnsureResponseTable(_ context.Context, _ *domain.Workspace) error {
	f.calls++
	return f.err
}

type fakeRunner struct {
	n   int64
	err error
}

func (f *fakeRunner) Run(_ context.Context) (int, error) { return int(f.n), f.err }

// fakeSweepRunner satisfies the int64 sweep contract.
type fakeSweepRunner struct {
	n   int64
	err error
}

func (f *fakeSweepRunner) Run(_ context.Context) (int64, error) { return f.n, f.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
