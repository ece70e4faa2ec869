package server

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/alfredjeanlab/formbuilder/internal/builder"
	"github.com/alfredjeanlab/formbuilder/internal/idgen"
	"github.com/alfredjeanlab/formbuilder/internal/model"
	"github.com/alfredjeanlab/formbuilder/internal/store"
)

var errSessionNotFound = errors.New("session not found")

// session is one in-progress builder. Its drag tracker is the ephemeral
// gesture context and is never saved.
type session struct {
	mu        sync.Mutex
	id        string
	state     *builder.State
	tracker   *builder.Tracker
	createdAt time.Time
	updatedAt time.Time
}

// view must be called with s.mu held.
func (s *session) view() model.BuilderSession {
	return model.BuilderSession{
		ID:        s.id,
		Name:      s.state.Name,
		Fields:    s.state.Fields(),
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

// touch must be called with s.mu held.
func (s *session) touch() {
	s.updatedAt = time.Now().UTC()
}

// sessionStore keeps builder sessions in memory. With a backing store the
// map is a cache: sessions are written through on every change and loaded
// back on demand. Without one, sessions are lost on restart.
type sessionStore struct {
	mu         sync.RWMutex
	sessions   map[string]*session
	persist    store.Store
	newID      func() (string, error)
	newFieldID func() (string, error)
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		sessions:   make(map[string]*session),
		newID:      idgen.Session,
		newFieldID: idgen.Field,
	}
}

func (st *sessionStore) newSession(id, name string, fields []model.PlacedField, createdAt, updatedAt time.Time) *session {
	return &session{
		id:        id,
		state:     builder.Restore(name, fields, builder.WithIDFunc(st.newFieldID)),
		tracker:   builder.NewTracker(builder.DefaultActivationDistance),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (st *sessionStore) create(ctx context.Context, name string) (*session, error) {
	id, err := st.newID()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := st.newSession(id, name, nil, now, now)
	if st.persist != nil {
		v := sess.view()
		if err := st.persist.SaveSession(ctx, &v); err != nil {
			return nil, err
		}
	}
	st.mu.Lock()
	st.sessions[id] = sess
	st.mu.Unlock()
	return sess, nil
}

func (st *sessionStore) get(ctx context.Context, id string) (*session, error) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		return sess, nil
	}
	if st.persist == nil {
		return nil, errSessionNotFound
	}

	saved, err := st.persist.GetSession(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	loaded := st.newSession(saved.ID, saved.Name, saved.Fields, saved.CreatedAt, saved.UpdatedAt)

	st.mu.Lock()
	defer st.mu.Unlock()
	// Another request may have loaded it first.
	if sess, ok := st.sessions[id]; ok {
		return sess, nil
	}
	st.sessions[id] = loaded
	return loaded, nil
}

// save writes sess through to the backing store. Must be called with
// sess.mu held.
func (st *sessionStore) save(ctx context.Context, sess *session) error {
	if st.persist == nil {
		return nil
	}
	v := sess.view()
	return st.persist.SaveSession(ctx, &v)
}

func (st *sessionStore) delete(ctx context.Context, id string) (bool, error) {
	st.mu.Lock()
	_, cached := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if st.persist == nil {
		return cached, nil
	}
	err := st.persist.DeleteSession(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return cached, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// evict drops a session from memory only. It reports whether the session
// is gone for good, i.e. there is no backing store to reload it from.
func (st *sessionStore) evict(id string) (bool, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok, st.persist == nil
}
