package service

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"dajtovon/internal/models"
	"dajtovon/internal/reaction"
	"dajtovon/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// contentRepoStub is a stub for repository.ContentRepository.
type contentRepoStub struct {
	createFn         func(context.Context, *models.Content) error
	getByIDFn        func(context.Context, string) (*models.Content, error)
	listFn           func(context.Context, repository.ContentFilter) ([]*models.Content, error)
	updateFn         func(context.Context, *models.Content) error
	deleteFn         func(context.Context, string) error
	incrementViewsFn func(context.Context, string) (int64, error)
}

func (s *contentRepoStub) Create(ctx context.Context, c *models.Content) error {
	return s.createFn(ctx, c)
}
func (s *contentRepoStub) GetByID(ctx context.Context, id string) (*models.Content, error) {
	return s.getByIDFn(ctx, id)
}
func (s *contentRepoStub) List(ctx context.Context, filter repository.ContentFilter) ([]*models.Content, error) {
	return s.listFn(ctx, filter)
}
func (s *contentRepoStub) Update(ctx context.Context, c *models.Content) error {
	return s.updateFn(ctx, c)
}
func (s *contentRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s *contentRepoStub) IncrementViews(ctx context.Context, id string) (int64, error) {
	return s.incrementViewsFn(ctx, id)
}

// contentOwnedBy returns a content repo holding a single item.
func contentOwnedBy(id, author string) *contentRepoStub {
	return &contentRepoStub{
		createFn: func(context.Context, *models.Content) error { return nil },
		getByIDFn: func(_ context.Context, got string) (*models.Content, error) {
			if got != id {
				return nil, gorm.ErrRecordNotFound
			}
			return &models.Content{ID: id, Author: author, Topic: "Topic " + id, Body: "body"}, nil
		},
		listFn:           func(context.Context, repository.ContentFilter) ([]*models.Content, error) { return nil, nil },
		updateFn:         func(context.Context, *models.Content) error { return nil },
		deleteFn:         func(context.Context, string) error { return nil },
		incrementViewsFn: func(context.Context, string) (int64, error) { return 1, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn        func(context.Context, *models.Comment) error
	getByIDFn       func(context.Context, string, string) (*models.Comment, error)
	listByContentFn func(context.Context, string) ([]*models.Comment, error)
	updateTextFn    func(context.Context, *models.Comment) error
	deleteFn        func(context.Context, string, string) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, contentID, commentID string) (*models.Comment, error) {
	return s.getByIDFn(ctx, contentID, commentID)
}
func (s *commentRepoStub) ListByContent(ctx context.Context, contentID string) ([]*models.Comment, error) {
	return s.listByContentFn(ctx, contentID)
}
func (s *commentRepoStub) UpdateText(ctx context.Context, c *models.Comment) error {
	return s.updateTextFn(ctx, c)
}
func (s *commentRepoStub) Delete(ctx context.Context, contentID, commentID string) error {
	return s.deleteFn(ctx, contentID, commentID)
}

// commentsOn returns a comment repo holding comments keyed by id, all on contentID.
func commentsOn(contentID string, authors map[string]string) *commentRepoStub {
	return &commentRepoStub{
		createFn: func(context.Context, *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, cid, id string) (*models.Comment, error) {
			author, ok := authors[id]
			if !ok || cid != contentID {
				return nil, gorm.ErrRecordNotFound
			}
			return &models.Comment{ID: id, ContentID: contentID, Author: author, Text: "text"}, nil
		},
		listByContentFn: func(context.Context, string) ([]*models.Comment, error) { return nil, nil },
		updateTextFn:    func(context.Context, *models.Comment) error { return nil },
		deleteFn:        func(context.Context, string, string) error { return nil },
	}
}

// memReactions is an in-memory repository.ReactionRepository.
type memReactions struct {
	mu        sync.Mutex
	states    map[repository.Target]map[string]reaction.State
	mutateErr error
}

func newMemReactions() *memReactions {
	return &memReactions{states: make(map[repository.Target]map[string]reaction.State)}
}

func (m *memReactions) Mutate(_ context.Context, target repository.Target, actor string, decide repository.DecideFunc) (reaction.Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mutateErr != nil {
		return reaction.Transition{}, m.mutateErr
	}
	cur := m.states[target][actor]
	if cur == "" {
		cur = reaction.Neutral
	}
	tr, err := decide(cur)
	if err != nil {
		return reaction.Transition{}, err
	}
	if m.states[target] == nil {
		m.states[target] = make(map[string]reaction.State)
	}
	if tr.To == reaction.Neutral {
		delete(m.states[target], actor)
	} else {
		m.states[target][actor] = tr.To
	}
	return tr, nil
}

func (m *memReactions) State(_ context.Context, target repository.Target, actor string) (reaction.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[target][actor]; ok {
		return st, nil
	}
	return reaction.Neutral, nil
}

func (m *memReactions) Sets(_ context.Context, target repository.Target) (reaction.Sets, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sets := reaction.Sets{Likes: []string{}, Dislikes: []string{}}
	for actor, st := range m.states[target] {
		if st == reaction.Liked {
			sets.Likes = append(sets.Likes, actor)
		} else {
			sets.Dislikes = append(sets.Dislikes, actor)
		}
	}
	sort.Strings(sets.Likes)
	sort.Strings(sets.Dislikes)
	return sets, nil
}

func (m *memReactions) Counts(_ context.Context, targetType string, ids []string) (map[string]models.ReactionCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.ReactionCounts, len(ids))
	for _, id := range ids {
		var c models.ReactionCounts
		for _, st := range m.states[repository.Target{Type: targetType, ID: id}] {
			if st == reaction.Liked {
				c.Likes++
			} else {
				c.Dislikes++
			}
		}
		out[id] = c
	}
	return out, nil
}

func (m *memReactions) States(_ context.Context, targetType string, ids []string, actor string) (map[string]reaction.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]reaction.State)
	for _, id := range ids {
		if st, ok := m.states[repository.Target{Type: targetType, ID: id}][actor]; ok {
			out[id] = st
		}
	}
	return out, nil
}

// memNotifications is an in-memory repository.NotificationRepository.
type memNotifications struct {
	mu        sync.Mutex
	rows      []*models.Notification
	nextID    uint
	createErr error
}

func (m *memNotifications) Create(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	n.ID = m.nextID
	n.CreatedAt = time.Now()
	cp := *n
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memNotifications) ListByRecipient(_ context.Context, recipient string, limit int) ([]*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Notification{}
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].Recipient == recipient {
			cp := *m.rows[i]
			out = append(out, &cp)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memNotifications) GetByID(_ context.Context, id uint) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.rows {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memNotifications) MarkRead(_ context.Context, id uint, recipient string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.rows {
		if n.ID == id && n.Recipient == recipient {
			n.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memNotifications) MarkAllRead(_ context.Context, recipient string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	for _, n := range m.rows {
		if n.Recipient == recipient && !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}

func (m *memNotifications) CountUnread(_ context.Context, recipient string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.rows {
		if n.Recipient == recipient && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *memNotifications) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	var deleted int64
	for _, n := range m.rows {
		if n.Read && n.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	m.rows = kept
	return deleted, nil
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	users     map[string]*models.User
	createErr error
}

func (s *userRepoStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return s.users[username], nil
}
func (s *userRepoStub) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}
func (s *userRepoStub) Create(_ context.Context, u *models.User) error {
	return s.createErr
}

// emitterStub records every event handed to it.
type emitterStub struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (e *emitterStub) Emit(_ context.Context, ev Event) (*models.Notification, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	if e.err != nil {
		return nil, e.err
	}
	return &models.Notification{Kind: ev.Kind, Actor: ev.Actor, Recipient: ev.Recipient}, nil
}

func (e *emitterStub) recorded() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Event(nil), e.events...)
}

var errStoreDown = errors.New("store down")

// stalledNotifications never finishes an insert before the caller's deadline.
type stalledNotifications struct {
	memNotifications
}

func (m *stalledNotifications) Create(ctx context.Context, _ *models.Notification) error {
	<-ctx.Done()
	return ctx.Err()
}

// stalledReactions never finishes a mutation before the caller's deadline.
type stalledReactions struct {
	*memReactions
}

func (m stalledReactions) Mutate(ctx context.Context, _ repository.Target, _ string, _ repository.DecideFunc) (reaction.Transition, error) {
	<-ctx.Done()
	return reaction.Transition{}, ctx.Err()
}

// assertRetryableStoreError asserts that err is a StoreError raised by a
// missed deadline, reported to clients as 503.
func assertRetryableStoreError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeStore)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.True(t, appErr.Retryable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, http.StatusServiceUnavailable, models.StatusFor(err))
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeUnauthorized)
}
