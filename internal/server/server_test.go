package server

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava12/melody/resolver"
	"github.com/ava12/melody/symbols"
)

func newTestRouter(opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(opts)
}

func post(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	switch b := body.(type) {
	case string:
		payload = []byte(b)
	default:
		var err error
		payload, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(Options{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestCompile(t *testing.T) {
	r := newTestRouter(Options{})
	w := post(t, r, "/v1/compile", gin.H{
		"name":   "num",
		"source": "let .d { some of <digit> }\nlet .x { 'x' }\n<start>; .d; <end>",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp compileResponse
	decode(t, w, &resp)
	assert.Equal(t, compileResponse{
		Name:        "num",
		Pattern:     `^\d+$`,
		Definitions: map[string]string{"d": `\d+`, "x": "x"},
		Order:       []string{"d", "x"},
		Unused:      []string{"x"},
	}, resp)
}

func TestCompileErrors(t *testing.T) {
	r := newTestRouter(Options{})

	w := post(t, r, "/v1/compile", gin.H{"source": "let .a { .b }\nlet .b { .a }\n.a"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp struct {
		Errors []errorItem `json:"errors"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, resolver.CycleError, resp.Errors[0].Code)
	assert.Contains(t, resp.Errors[0].Names, "a")
	assert.Contains(t, resp.Errors[0].Names, "b")
	assert.Contains(t, resp.Errors[0].Message, "in request at line")

	w = post(t, r, "/v1/compile", gin.H{"source": "let .a { 'x' }\nlet .a { 'y' }\nlet .a { 'z' }"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	decode(t, w, &resp)
	require.Len(t, resp.Errors, 2)
	assert.Equal(t, symbols.DuplicateError, resp.Errors[1].Code)
	assert.Equal(t, 3, resp.Errors[1].Line)
	assert.Equal(t, 5, resp.Errors[1].Col)

	w = post(t, r, "/v1/compile", gin.H{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, r, "/v1/compile", "{")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBodyLimit(t *testing.T) {
	r := newTestRouter(Options{MaxBodyBytes: 32})
	w := post(t, r, "/v1/compile", gin.H{"source": strings.Repeat("'a';", 20)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = post(t, r, "/v1/compile", gin.H{"source": "'a'"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMatch(t *testing.T) {
	r := newTestRouter(Options{})
	source := "<start>; capture year { 4 of <digit> }; '-'; capture month { 2 of <digit> }; <end>"

	w := post(t, r, "/v1/match", gin.H{"source": source, "input": "2024-05"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp matchResponse
	decode(t, w, &resp)
	assert.True(t, resp.Matched)
	assert.Equal(t, "2024-05", resp.Match)
	assert.Equal(t, map[string]string{"year": "2024", "month": "05"}, resp.Groups)

	w = post(t, r, "/v1/match", gin.H{"source": source, "input": "2024-5"})
	require.Equal(t, http.StatusOK, w.Code)
	resp = matchResponse{}
	decode(t, w, &resp)
	assert.False(t, resp.Matched)
	assert.Nil(t, resp.Groups)
}

func TestMatchDefinition(t *testing.T) {
	r := newTestRouter(Options{})
	source := "let .hex { some of either { <digit>; a to f; } }"

	w := post(t, r, "/v1/match", gin.H{"source": source, "definition": "hex", "input": "zz0fz"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp matchResponse
	decode(t, w, &resp)
	assert.True(t, resp.Matched)
	assert.Equal(t, "0f", resp.Match)

	w = post(t, r, "/v1/match", gin.H{"source": source, "definition": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = post(t, r, "/v1/match", gin.H{"source": source, "input": "0f"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAccessLog(t *testing.T) {
	var out bytes.Buffer
	r := newTestRouter(Options{AccessLogger: log.New(&out, "", 0)})
	post(t, r, "/v1/compile", gin.H{"name": "demo", "source": "'a'"})

	line := out.String()
	assert.Contains(t, line, "status=200")
	assert.Contains(t, line, "method=POST path=/v1/compile")
	assert.Contains(t, line, `name="demo"`)
}

func TestFormatRequestLine(t *testing.T) {
	line := formatRequestLine(404, 1500*time.Microsecond, "127.0.0.1", "GET", "/x", "", false)
	assert.Equal(t, "status=404 latency_ms=1 client_ip=127.0.0.1 method=GET path=/x", line)

	colored := formatRequestLine(500, 0, "127.0.0.1", "GET", "/x", "", true)
	assert.Contains(t, colored, "500")
}
