package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethicsbot/backend/internal/model"
	"github.com/ethicsbot/backend/internal/pkg/directive"
)

func TestDirectiveHandlerList(t *testing.T) {
	catalog, err := directive.Builtin()
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewDirectiveHandler(catalog).RegisterRoutes(r.Group("/api"))

	w := doJSON(r, http.MethodGet, "/api/directives", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data  []DirectiveResponse `json:"data"`
		Total int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, len(catalog.List()), body.Total)

	routable := 0
	for _, d := range body.Data {
		if d.Routable {
			routable++
		}
	}
	assert.Equal(t, len(directive.Routable()), routable)
	assert.NotContains(t, w.Body.String(), "system_prompt")
}

type fakeEvaluationRepo struct {
	rows []model.Evaluation
	err  error
}

func (f *fakeEvaluationRepo) Create(ctx context.Context, evaluation *model.Evaluation) error {
	f.rows = append(f.rows, *evaluation)
	return nil
}

func (f *fakeEvaluationRepo) List(ctx context.Context) ([]model.Evaluation, error) {
	return f.rows, f.err
}

func (f *fakeEvaluationRepo) ListByParticipant(ctx context.Context, username string) ([]model.Evaluation, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Evaluation
	for _, row := range f.rows {
		if row.Username == username {
			out = append(out, row)
		}
	}
	return out, nil
}

func TestEvaluationHandlerListByParticipant(t *testing.T) {
	repo := &fakeEvaluationRepo{rows: []model.Evaluation{
		{SessionID: "s1", Username: "alice@example.edu", Grade: 90},
		{SessionID: "s2", Username: "bob@example.edu", Grade: 70},
	}}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewEvaluationHandler(repo).RegisterRoutes(r.Group("/api"))

	w := doJSON(r, http.MethodGet, "/api/participants/alice@example.edu/evaluations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	repo.err = errors.New("db down")
	w = doJSON(r, http.MethodGet, "/api/participants/alice@example.edu/evaluations", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
