package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/spec-kit/event-service/internal/dispatch"
	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/repository"
)

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]domain.User
	seq     int
	lookups int
	failGet error
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]domain.User{}}
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return repository.ErrDuplicate
	}
	m.seq++
	u.ID = "user-" + strconv.Itoa(m.seq)
	u.CreatedAt = time.Now()
	m.byEmail[u.Email] = *u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.failGet != nil {
		return nil, m.failGet
	}
	u, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

type memEvents struct {
	mu     sync.Mutex
	rows   map[int64]domain.Event
	seq    int64
	lists  int
	gets   int
	failOn error
	// afterList runs once List has read its rows, outside the lock.
	afterList func()
}

func newMemEvents() *memEvents {
	return &memEvents{rows: map[int64]domain.Event{}}
}

func (m *memEvents) Create(_ context.Context, e *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return m.failOn
	}
	m.seq++
	e.ID = m.seq
	m.rows[e.ID] = *e
	return nil
}

func (m *memEvents) List(context.Context) ([]domain.Event, error) {
	m.mu.Lock()
	m.lists++
	out := make([]domain.Event, 0, len(m.rows))
	for _, e := range m.rows {
		out = append(out, e)
	}
	hook := m.afterList
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if hook != nil {
		hook()
	}
	return out, nil
}

func (m *memEvents) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	e, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (m *memEvents) Update(_ context.Context, id int64, p domain.EventPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Venue != nil {
		e.Venue = *p.Venue
	}
	m.rows[id] = e
	return nil
}

func (m *memEvents) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type recordingDispatcher struct {
	mu       sync.Mutex
	messages []dispatch.Message
}

func (r *recordingDispatcher) Publish(_ context.Context, msg dispatch.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingDispatcher) Subscribe(dispatch.Topic, dispatch.Handler) {}

func (r *recordingDispatcher) topics() []dispatch.Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dispatch.Topic, 0, len(r.messages))
	for _, m := range r.messages {
		out = append(out, m.Topic)
	}
	return out
}

var errStoreDown = errors.New("connection refused")
