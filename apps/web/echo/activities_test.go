package echoweb

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubanco/recursos/core"
	"github.com/edubanco/recursos/core/activity"
)

func testGeneration() activity.Generation {
	gen := activity.Generation{Material: activity.MaterialRef{ID: "m1", Title: "Frações"}}
	gen.Content.LessonPlan.DurationTotal = "50 minutos"
	gen.Content.Activities.Summary = "resumo"
	return gen
}

func Test_activities_generate(t *testing.T) {
	deps := &testDeps{
		conf:        core.NewTestConfig(),
		sessionSvc:  newMockSessionSvc(testSession()),
		activitySvc: &mockActivitySvc{gen: testGeneration()},
	}
	srv := setup(deps)

	req, rec := newRequest(http.MethodPost, "/materials/m1/activities", nil, sessionCookie(deps.conf, testSession()))
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var gen activity.Generation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gen))
	assert.Equal(t, "50 minutos", gen.Content.LessonPlan.DurationTotal)
	assert.Equal(t, "resumo", gen.Content.Activities.Summary)
}

func Test_activities_requireAuth(t *testing.T) {
	srv := setup(&testDeps{})

	req, rec := newRequest(http.MethodPost, "/materials/m1/activities", nil)
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req, rec = newRequest(http.MethodGet, "/materials/m1/activities", nil)
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_activities_latest_noneYet(t *testing.T) {
	deps := &testDeps{
		conf:        core.NewTestConfig(),
		sessionSvc:  newMockSessionSvc(testSession()),
		activitySvc: &mockActivitySvc{err: activity.ErrNoGeneration},
	}
	srv := setup(deps)

	req, rec := newRequest(http.MethodGet, "/materials/m1/activities", nil, sessionCookie(deps.conf, testSession()))
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
