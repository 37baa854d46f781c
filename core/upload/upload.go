package upload

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edubanco/recursos/core"
	"github.com/edubanco/recursos/core/material"
	"github.com/edubanco/recursos/core/session"
)

// Status is the upload state machine: idle → uploading → (success | error).
// error → uploading is allowed via explicit retry; uploading → uploading is
// not (duplicate submissions are suppressed).
type Status string

const (
	StatusIdle      Status = "idle"
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

// ErrUploadInProgress rejects a second submission while one is pending.
var ErrUploadInProgress = errors.New("já existe um envio em andamento")

// State is the observable progress of a user's upload.
type State struct {
	ID         string `json:"id"`
	Status     Status `json:"status"`
	Progress   int    `json:"progress"` // 0..100, never decreases
	Error      string `json:"error,omitempty"`
	MaterialID string `json:"materialId,omitempty"`
}

// Tracker keeps one upload state per user. In-process on purpose: the
// tracking request and the polling request share sticky sessions anyway,
// and a lost state only costs a progress bar.
type Tracker struct {
	mu     sync.RWMutex
	states map[string]*State // by user ID
}

func NewTracker() *Tracker {
	return &Tracker{states: make(map[string]*State)}
}

// Get returns the user's current upload state; idle if none.
func (t *Tracker) Get(userID string) State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if st, ok := t.states[userID]; ok {
		return *st
	}
	return State{Status: StatusIdle}
}

// begin transitions to uploading; refused while another upload is pending.
func (t *Tracker) begin(userID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.states[userID]; ok && st.Status == StatusUploading {
		return "", ErrUploadInProgress
	}
	id := uuid.New().String()
	t.states[userID] = &State{ID: id, Status: StatusUploading}
	return id, nil
}

// progress records a new percentage, keeping the reported value monotonic.
func (t *Tracker) progress(userID string, pct int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[userID]
	if !ok || st.Status != StatusUploading {
		return
	}
	if pct > 100 {
		pct = 100
	}
	if pct > st.Progress {
		st.Progress = pct
	}
}

func (t *Tracker) succeed(userID, materialID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.states[userID]; ok {
		st.Status = StatusSuccess
		st.Progress = 100
		st.MaterialID = materialID
		st.Error = ""
	}
}

func (t *Tracker) fail(userID, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.states[userID]; ok {
		st.Status = StatusError
		st.Error = msg
	}
}

// Reset returns the user to idle so the form can be reused; a pending
// upload cannot be reset away.
func (t *Tracker) Reset(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.states[userID]; ok && st.Status == StatusUploading {
		return
	}
	delete(t.states, userID)
}

type (
	ServiceInterface interface {
		Upload(ctx context.Context, sess session.Session, nm material.NewMaterial, file io.Reader) (State, error)
		Status(sess session.Session) State
		Reset(sess session.Session)
	}

	Service struct {
		api     material.API
		tracker *Tracker
		cache   core.ViewCache
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(api material.API, tracker *Tracker, cache core.ViewCache) *Service {
	return &Service{api: api, tracker: tracker, cache: cache}
}

// Upload streams an already-validated material to the backend, tracking
// progress as the file body is consumed. On success every view the new
// material shows up in is invalidated before the caller sees the result.
func (s *Service) Upload(ctx context.Context, sess session.Session, nm material.NewMaterial, file io.Reader) (State, error) {
	if !sess.Authenticated() {
		return State{}, core.ErrNotAuthenticated
	}
	userID := sess.User.ID

	if _, err := s.tracker.begin(userID); err != nil {
		return s.tracker.Get(userID), err
	}

	mat, err := s.api.Create(ctx, sess.Token, nm, file, func(pct int) {
		s.tracker.progress(userID, pct)
	})
	if err != nil {
		s.tracker.fail(userID, userMessage(err))
		return s.tracker.Get(userID), err
	}

	if err := s.cache.Invalidate(ctx,
		core.MaterialListKeyPrefix(),
		core.MaterialStatsKey(),
		core.UserKeyPrefix(userID),
	); err != nil {
		s.tracker.fail(userID, "falha ao atualizar as listagens")
		return s.tracker.Get(userID), errors.Wrap(err, "invalidating after upload")
	}

	s.tracker.succeed(userID, mat.ID)
	return s.tracker.Get(userID), nil
}

func (s *Service) Status(sess session.Session) State {
	return s.tracker.Get(sess.User.ID)
}

func (s *Service) Reset(sess session.Session) {
	s.tracker.Reset(sess.User.ID)
}

func userMessage(err error) string {
	if err == nil {
		return ""
	}
	return errors.Cause(err).Error()
}
