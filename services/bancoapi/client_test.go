package bancoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubanco/recursos/core"
	"github.com/edubanco/recursos/core/material"
	"github.com/edubanco/recursos/core/session"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(core.BancoAPIConfig{
		BaseURL:       srv.URL,
		Timeout:       5 * time.Second,
		UploadTimeout: 5 * time.Second,
	})
	return client, srv
}

func envelopeOK(data interface{}) string {
	raw, _ := json.Marshal(data)
	return fmt.Sprintf(`{"success":true,"data":%s}`, raw)
}

func Test_Client_Login(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@escola.br", body["email"])

		fmt.Fprint(w, envelopeOK(map[string]interface{}{
			"user":  session.User{ID: "u1", Name: "Ana"},
			"token": "tok123",
		}))
	}))
	defer srv.Close()

	auth, err := client.Login(context.Background(), session.Credentials{Email: "ana@escola.br", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "tok123", auth.Token)
	assert.Equal(t, "u1", auth.User.ID)
}

func Test_Client_businessErrorPassthrough(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"success":false,"error":"email já cadastrado"}`)
	}))
	defer srv.Close()

	_, err := client.Register(context.Background(), session.NewAccount{})
	apiErr, ok := errors.Cause(err).(*APIError)
	require.True(t, ok, "expected *APIError, got %T", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "email já cadastrado", apiErr.Message)
}

func Test_Client_401IsSessionExpired(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"success":false,"error":"token inválido"}`)
	}))
	defer srv.Close()

	// every endpoint maps 401 the same way, whatever it was doing
	_, err := client.Verify(context.Background(), "stale")
	assert.Equal(t, core.ErrSessionExpired, errors.Cause(err))

	err = client.Rate(context.Background(), "stale", "m1", material.NewRating{Rating: 5})
	assert.Equal(t, core.ErrSessionExpired, errors.Cause(err))
}

func Test_Client_Query(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/materials", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Matemática", q.Get("discipline"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "12", q.Get("limit"))

		fmt.Fprint(w, envelopeOK(material.QueryResult{
			Materials:  []material.Material{{ID: "m1"}},
			Pagination: material.Pagination{Current: 2, HasNext: false},
		}))
	}))
	defer srv.Close()

	res, err := client.Query(context.Background(),
		material.QueryFilter{Discipline: "Matemática"},
		material.Page{Page: 2, Limit: 12},
	)
	require.NoError(t, err)
	require.Len(t, res.Materials, 1)
	assert.Equal(t, "m1", res.Materials[0].ID)
}

func Test_Client_Query_404IsEmptyPage(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"success":false,"error":"nenhum material"}`)
	}))
	defer srv.Close()

	res, err := client.Query(context.Background(), material.QueryFilter{}, material.Page{Page: 3, Limit: 12})
	require.NoError(t, err)
	assert.Empty(t, res.Materials)
	assert.NotNil(t, res.Materials)
	assert.Equal(t, 3, res.Pagination.Current)
}

func Test_Client_Get_404IsNotFound(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"success":false,"error":"não existe"}`)
	}))
	defer srv.Close()

	_, err := client.Get(context.Background(), "nope")
	assert.Equal(t, material.ErrNotFound, errors.Cause(err))
}

func Test_Client_Create_multipartUpload(t *testing.T) {
	fileBody := strings.Repeat("x", 4096)
	var pcts []int

	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Frações", r.FormValue("title"))
		assert.Equal(t, "EXERCISE", r.FormValue("materialType"))
		assert.Equal(t, `["frações","5º ano"]`, r.FormValue("tags"))

		file, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "fracoes.pdf", hdr.Filename)
		got, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Len(t, got, len(fileBody))

		fmt.Fprint(w, envelopeOK(map[string]interface{}{
			"material": material.Material{ID: "m9", Title: "Frações"},
		}))
	}))
	defer srv.Close()

	nm := material.NewMaterial{
		Title:        "Frações",
		Description:  "Lista de exercícios sobre frações.",
		Discipline:   "Matemática",
		Grade:        "5º Ano",
		MaterialType: material.TypeExercise,
		Difficulty:   material.DifficultyMedium,
		Tags:         []string{"frações", "5º ano"},
		File:         material.FileInfo{Name: "fracoes.pdf", Size: int64(len(fileBody)), ContentType: "application/pdf"},
	}

	mat, err := client.Create(context.Background(), "tok", nm, strings.NewReader(fileBody), func(pct int) {
		pcts = append(pcts, pct)
	})
	require.NoError(t, err)
	assert.Equal(t, "m9", mat.ID)

	require.NotEmpty(t, pcts, "progress must be reported")
	for i := 1; i < len(pcts); i++ {
		assert.GreaterOrEqual(t, pcts[i], pcts[i-1], "progress never decreases")
	}
	assert.Equal(t, 100, pcts[len(pcts)-1])
}

func Test_Client_GenerateContent(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/materials/m1/generate-activities", r.URL.Path)

		fmt.Fprint(w, envelopeOK(map[string]interface{}{
			"material": map[string]string{"id": "m1", "title": "Frações"},
			"content": map[string]interface{}{
				"lesson_plan": map[string]interface{}{"duration_total": "50 minutos"},
				"activities":  map[string]interface{}{"summary": "resumo"},
			},
			"metadata": map[string]interface{}{"extractedFromFile": true},
		}))
	}))
	defer srv.Close()

	gen, err := client.GenerateContent(context.Background(), "tok", "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", gen.Material.ID)
	assert.Equal(t, "50 minutos", gen.Content.LessonPlan.DurationTotal)
	assert.Equal(t, "resumo", gen.Content.Activities.Summary)
	assert.True(t, gen.Metadata.ExtractedFromFile)
}

func Test_Client_brokenEnvelope(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{not json`)
	}))
	defer srv.Close()

	_, err := client.Get(context.Background(), "m1")
	assert.Error(t, err)
}
