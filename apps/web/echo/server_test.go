package echoweb

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/edubanco/recursos/core"
	"github.com/edubanco/recursos/core/activity"
	"github.com/edubanco/recursos/core/material"
	"github.com/edubanco/recursos/core/session"
	"github.com/edubanco/recursos/core/upload"
	logsvc "github.com/edubanco/recursos/services/logger"
)

// test fixtures: a server wired onto mocks, plus a ready-made session cookie

var testUser = session.User{ID: "u1", Name: "Ana", Email: "ana@escola.br"}

func testSession() session.Session {
	return session.Session{
		ID:        "sess1",
		Token:     "tok",
		User:      testUser,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

type mockSessionSvc struct {
	sessions map[string]session.Session

	loginErr   error
	restoreErr error
	loggedOut  []string
}

var _ session.ServiceInterface = (*mockSessionSvc)(nil)

func newMockSessionSvc(sessions ...session.Session) *mockSessionSvc {
	svc := &mockSessionSvc{sessions: make(map[string]session.Session)}
	for _, sess := range sessions {
		svc.sessions[sess.ID] = sess
	}
	return svc
}

func (m *mockSessionSvc) Login(_ context.Context, creds session.Credentials) (session.Session, error) {
	if m.loginErr != nil {
		return session.Session{}, m.loginErr
	}
	sess := testSession()
	m.sessions[sess.ID] = sess
	return sess, nil
}

func (m *mockSessionSvc) Register(ctx context.Context, _ session.NewAccount) (session.Session, error) {
	return m.Login(ctx, session.Credentials{})
}

func (m *mockSessionSvc) Logout(_ context.Context, id string) error {
	m.loggedOut = append(m.loggedOut, id)
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionSvc) Current(_ context.Context, id string) (session.Session, error) {
	if sess, ok := m.sessions[id]; ok {
		return sess, nil
	}
	return session.Session{}, core.ErrNotAuthenticated
}

func (m *mockSessionSvc) Restore(ctx context.Context, id string) (session.Session, error) {
	if m.restoreErr != nil {
		delete(m.sessions, id)
		return session.Session{}, m.restoreErr
	}
	return m.Current(ctx, id)
}

func (m *mockSessionSvc) Reset(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionSvc) UpdateProfile(_ context.Context, id string, up session.UpdateProfile) (session.Session, error) {
	sess, ok := m.sessions[id]
	if !ok {
		return session.Session{}, core.ErrNotAuthenticated
	}
	if up.Name != "" {
		sess.User.Name = up.Name
	}
	if up.School != "" {
		sess.User.School = up.School
	}
	m.sessions[id] = sess
	return sess, nil
}

func (m *mockSessionSvc) ChangePassword(context.Context, string, session.ChangePassword) error {
	return nil
}

func (m *mockSessionSvc) Subscribe(func(session.Event)) {}

type mockMaterialSvc struct {
	pages       map[int]material.QueryResult
	mat         material.Material
	getErr      error
	download    material.DownloadInfo
	downloadErr error
	downloads   int
	rated       []material.NewRating
	shared      []material.ShareRequest
	stats       material.GlobalStats
}

var _ material.ServiceInterface = (*mockMaterialSvc)(nil)

func (m *mockMaterialSvc) Query(_ context.Context, _ material.QueryFilter, p material.Page) (material.QueryResult, error) {
	if res, ok := m.pages[p.Page]; ok {
		return res, nil
	}
	return material.QueryResult{Materials: []material.Material{}}, nil
}

func (m *mockMaterialSvc) Get(context.Context, string) (material.Material, error) {
	if m.getErr != nil {
		return material.Material{}, m.getErr
	}
	return m.mat, nil
}

func (m *mockMaterialSvc) Update(_ context.Context, _ session.Session, _ string, _ material.UpdateMaterial) (material.Material, error) {
	return m.mat, nil
}

func (m *mockMaterialSvc) Delete(context.Context, session.Session, string) error { return nil }

func (m *mockMaterialSvc) Download(context.Context, session.Session, string) (material.DownloadInfo, error) {
	m.downloads++
	if m.downloadErr != nil {
		return material.DownloadInfo{}, m.downloadErr
	}
	return m.download, nil
}

func (m *mockMaterialSvc) Rate(_ context.Context, _ session.Session, _ string, nr material.NewRating) (material.Material, error) {
	m.rated = append(m.rated, nr)
	return m.mat, nil
}

func (m *mockMaterialSvc) Similar(context.Context, string, int) ([]material.Material, error) {
	return []material.Material{}, nil
}

func (m *mockMaterialSvc) MyMaterials(context.Context, session.Session, material.Page) (material.QueryResult, error) {
	return material.QueryResult{Materials: []material.Material{m.mat}}, nil
}

func (m *mockMaterialSvc) GlobalStats(context.Context) (material.GlobalStats, error) {
	return m.stats, nil
}

func (m *mockMaterialSvc) Share(_ context.Context, _ session.Session, _ string, sr material.ShareRequest) {
	m.shared = append(m.shared, sr)
}

type mockUploadSvc struct {
	state   upload.State
	err     error
	uploads int
}

var _ upload.ServiceInterface = (*mockUploadSvc)(nil)

func (m *mockUploadSvc) Upload(context.Context, session.Session, material.NewMaterial, io.Reader) (upload.State, error) {
	m.uploads++
	if m.err != nil {
		return m.state, m.err
	}
	return m.state, nil
}
func (m *mockUploadSvc) Status(session.Session) upload.State { return m.state }
func (m *mockUploadSvc) Reset(session.Session)               { m.state = upload.State{Status: upload.StatusIdle} }

type mockActivitySvc struct {
	gen activity.Generation
	err error
}

var _ activity.ServiceInterface = (*mockActivitySvc)(nil)

func (m *mockActivitySvc) Generate(context.Context, session.Session, string) (activity.Generation, error) {
	if m.err != nil {
		return activity.Generation{}, m.err
	}
	return m.gen, nil
}

func (m *mockActivitySvc) Latest(ctx context.Context, sess session.Session, id string) (activity.Generation, error) {
	return m.Generate(ctx, sess, id)
}

type testDeps struct {
	conf        *core.Config
	sessionSvc  *mockSessionSvc
	materialSvc *mockMaterialSvc
	uploadSvc   *mockUploadSvc
	activitySvc *mockActivitySvc
}

func setup(deps *testDeps) Server {
	if deps.conf == nil {
		deps.conf = core.NewTestConfig()
	}
	if deps.sessionSvc == nil {
		deps.sessionSvc = newMockSessionSvc()
	}
	if deps.materialSvc == nil {
		deps.materialSvc = &mockMaterialSvc{}
	}
	if deps.uploadSvc == nil {
		deps.uploadSvc = &mockUploadSvc{}
	}
	if deps.activitySvc == nil {
		deps.activitySvc = &mockActivitySvc{}
	}

	validate, translator := core.NewValidator()
	return NewServer(&Options{
		Conf:           deps.conf,
		Logger:         logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags)),
		DisableReqLogs: true,
		SessionSvc:     deps.sessionSvc,
		MaterialSvc:    deps.materialSvc,
		UploadSvc:      deps.uploadSvc,
		ActivitySvc:    deps.activitySvc,
		Validate:       validate,
		Translator:     translator,
	})
}

func sessionCookie(conf *core.Config, sess session.Session) *http.Cookie {
	return &http.Cookie{
		Name:  conf.Server.SessionCookie,
		Value: signCookieValue(sess.ID, conf.SecretKey),
	}
}

func newRequest(method, path string, body []byte, cookies ...*http.Cookie) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	return req, rec
}
