package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/projecthub-service/internal/pagination"
	"github.com/maxviazov/projecthub-service/internal/repository"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

func toJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestBuild_DefaultsToEmptyList(t *testing.T) {
	assert.JSONEq(t, `{"data":[],"error":null,"isError":false,"errorDetails":null}`, toJSON(t, response.Build(nil)))

	var nilSlice []string
	assert.JSONEq(t, `{"data":[],"error":null,"isError":false,"errorDetails":null}`, toJSON(t, response.Build(nilSlice)))
}

func TestBuild_KeepsScalarData(t *testing.T) {
	assert.JSONEq(t, `{"data":true,"error":null,"isError":false,"errorDetails":null}`, toJSON(t, response.Build(true)))
	assert.JSONEq(t, `{"data":{"name":"Ada"},"error":null,"isError":false,"errorDetails":null}`,
		toJSON(t, response.Build(map[string]string{"name": "Ada"})))
}

func TestBuild_ErrorSetsIsError(t *testing.T) {
	env := response.Build(nil, response.WithError(response.KindNotFound), response.WithDetails("Project not found."))
	assert.True(t, env.IsError)
	assert.JSONEq(t,
		`{"data":[],"error":"Not Found","isError":true,"errorDetails":"Project not found."}`,
		toJSON(t, env))
}

func TestBuild_EmptyDetailsStayNull(t *testing.T) {
	env := response.Build(nil, response.WithError(response.KindBadRequest), response.WithDetails(""))
	assert.JSONEq(t, `{"data":[],"error":"Bad Request","isError":true,"errorDetails":null}`, toJSON(t, env))
}

func TestBuildPaginated(t *testing.T) {
	info := pagination.Info{Page: 2, TotalPages: 3, RemainingPages: 0}
	page := response.BuildPaginated([]int{4, 5}, info)
	assert.JSONEq(t,
		`{"data":[4,5],"pagination":{"page":2,"totalPages":3,"remainingPages":0},"error":null,"isError":false,"errorDetails":null}`,
		toJSON(t, page))
	assert.Equal(t, http.StatusOK, page.Status())

	empty := response.BuildPaginated[int](nil, pagination.Info{Page: 9}, response.WithError(response.KindNotFound))
	assert.JSONEq(t,
		`{"data":[],"pagination":{"page":9,"totalPages":0,"remainingPages":0},"error":"Not Found","isError":true,"errorDetails":null}`,
		toJSON(t, empty))
	assert.Equal(t, http.StatusNotFound, empty.Status())
}

func TestStatusFor(t *testing.T) {
	kind := func(k response.ErrorKind) *response.ErrorKind { return &k }
	cases := []struct {
		in   *response.ErrorKind
		want int
	}{
		{nil, http.StatusOK},
		{kind(response.KindNotFound), http.StatusNotFound},
		{kind(response.KindNotAuthenticated), http.StatusUnauthorized},
		{kind(response.KindUnauthorized), http.StatusUnauthorized},
		{kind(response.KindForbidden), http.StatusForbidden},
		{kind(response.KindValidation), http.StatusBadRequest},
		{kind(response.KindBadRequest), http.StatusBadRequest},
		{kind(response.KindIncorrectLogin), http.StatusBadRequest},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, response.StatusFor(tc.in))
	}
}

type kindedErr struct{}

func (kindedErr) Error() string                 { return "nope" }
func (kindedErr) ErrorKind() response.ErrorKind { return response.KindForbidden }
func (kindedErr) ErrorDetails() string          { return "company mismatch" }

func TestMapError(t *testing.T) {
	cases := []struct {
		name        string
		in          error
		wantCode    int
		wantKind    response.ErrorKind
		wantDetails string
	}{
		{"kinded", kindedErr{}, 403, response.KindForbidden, "company mismatch"},
		{"wrapped kinded", fmt.Errorf("delete: %w", kindedErr{}), 403, response.KindForbidden, "company mismatch"},
		{"not_found", repository.ErrNotFound, 404, response.KindNotFound, ""},
		{"already_exists", repository.ErrAlreadyExists, 400, response.KindBadRequest, "already exists"},
		{"conflict", repository.ErrConflict, 400, response.KindBadRequest, "conflicts with existing data"},
		{"internal", errors.New("dial tcp: refused"), 400, response.KindBadRequest, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, env := response.MapError(tc.in)
			assert.Equal(t, tc.wantCode, code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.wantKind, *env.Error)
			assert.True(t, env.IsError)
			assert.Equal(t, tc.wantDetails, env.ErrorDetails.ValueOrZero())
		})
	}

	code, env := response.MapError(nil)
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, env.IsError)
}

func TestWriteError_AbortsWithEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	response.WriteError(c, repository.ErrNotFound)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"data":[],"error":"Not Found","isError":true,"errorDetails":null}`, w.Body.String())
}
