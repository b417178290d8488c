package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcshock/sewer/internal/appconfig"
	"github.com/dcshock/sewer/logger"
	"github.com/dcshock/sewer/observer"
	"github.com/dcshock/sewer/pipeline"
)

func newTestServer(t *testing.T, rec *observer.Recorder) *Server {
	t.Helper()
	upper := pipeline.Erase(pipeline.Map(strings.ToUpper))
	shout := pipeline.NewPipe("shout", upper).
		PreFilter(pipeline.NonNil[any]()).
		MustBuild()
	check := pipeline.NewPipe("check", pipeline.Transform(func(_ context.Context, v any) (any, error) {
		if v == "BOOM" {
			return nil, errors.New("exploded")
		}
		return v, nil
	})).MustBuild()

	b := pipeline.NewSystem[any, any](shout).Append(check).Name("shouter")
	if rec != nil {
		b.Observe(rec)
	}
	systems := map[string]*pipeline.System[any, any]{"shouter": b.MustBuild()}
	return New(appconfig.HTTPConfig{Addr: ":0", Mode: "test"},
		Deps{Service: "sewer-test", Systems: systems, Recorder: rec}, logger.Nop())
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(headerRequestID, "req-1")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return w, m
}

func TestHealth(t *testing.T) {
	w, m := do(t, newTestServer(t, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", m["status"])
	assert.Equal(t, float64(1), m["systems"])
}

func TestSystems(t *testing.T) {
	s := newTestServer(t, nil)

	w, m := do(t, s, http.MethodGet, "/systems", "")
	assert.Equal(t, http.StatusOK, w.Code)
	list := m["data"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "shouter", list[0].(map[string]interface{})["name"])

	w, m = do(t, s, http.MethodGet, "/systems/shouter", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"shout", "check"}, m["data"].(map[string]interface{})["stages"])

	w, m = do(t, s, http.MethodGet, "/systems/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, m["error"].(map[string]interface{})["code"])
}

func TestPump(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("success", func(t *testing.T) {
		w, m := do(t, s, http.MethodPost, "/systems/shouter/pump", `"hello"`)
		require.Equal(t, http.StatusOK, w.Code)
		data := m["data"].(map[string]interface{})
		assert.Equal(t, "HELLO", data["value"])
		assert.Equal(t, "success", data["kind"])
		assert.Equal(t, "check", data["stage"])
		assert.Equal(t, "req-1", data["run_id"])
		assert.Equal(t, "req-1", w.Header().Get(headerRequestID))
	})

	t.Run("empty body is filtered", func(t *testing.T) {
		w, m := do(t, s, http.MethodPost, "/systems/shouter/pump", "")
		require.Equal(t, http.StatusOK, w.Code)
		data := m["data"].(map[string]interface{})
		assert.Equal(t, "filtered-before", data["kind"])
		assert.Equal(t, "shout", data["stage"])
		assert.NotContains(t, data, "value")
	})

	t.Run("stage failure", func(t *testing.T) {
		w, m := do(t, s, http.MethodPost, "/systems/shouter/pump", `"boom"`)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := m["error"].(map[string]interface{})
		assert.Equal(t, CodeStageFailed, body["code"])
		assert.Equal(t, "check", body["stage"])
		assert.Contains(t, body["message"], "exploded")
	})

	t.Run("wrong input type fails the first stage", func(t *testing.T) {
		w, m := do(t, s, http.MethodPost, "/systems/shouter/pump", `42`)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "shout", m["error"].(map[string]interface{})["stage"])
	})

	t.Run("bad json", func(t *testing.T) {
		w, _ := do(t, s, http.MethodPost, "/systems/shouter/pump", `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad timeout", func(t *testing.T) {
		w, _ := do(t, s, http.MethodPost, "/systems/shouter/pump?timeout=soon", `"x"`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown system", func(t *testing.T) {
		w, _ := do(t, s, http.MethodPost, "/systems/nope/pump", `"x"`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRuns(t *testing.T) {
	s := newTestServer(t, observer.NewRecorder(10))

	do(t, s, http.MethodPost, "/systems/shouter/pump", `"hi"`)

	w, m := do(t, s, http.MethodGet, "/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	runs := m["data"].([]interface{})
	require.Len(t, runs, 1)
	assert.Equal(t, "req-1", runs[0].(map[string]interface{})["run_id"])

	w, m = do(t, s, http.MethodGet, "/runs?system=other", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, m["data"])

	w, m = do(t, s, http.MethodGet, "/runs/req-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	run := m["data"].(map[string]interface{})
	assert.Equal(t, observer.StatusSuccess, run["status"])
	assert.Len(t, run["stages"], 2)

	w, _ = do(t, s, http.MethodGet, "/runs/absent", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRuns_DisabledWithoutRecorder(t *testing.T) {
	w, _ := do(t, newTestServer(t, nil), http.MethodGet, "/runs", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecovery(t *testing.T) {
	s := newTestServer(t, nil)
	s.engine.GET("/panic", func(*gin.Context) { panic("kaboom") })

	w, m := do(t, s, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeInternal, m["error"].(map[string]interface{})["code"])
}
