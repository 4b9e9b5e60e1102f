package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/bizdocs/backend/internal/interfaces/http/dto"
	"github.com/bizdocs/backend/internal/interfaces/http/middleware"
	"github.com/bizdocs/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var (
	testActorID = uuid.MustParse("6c1f0b52-3f7a-4b0e-9d55-6f4f0b5c2a11")
	testActor   = document.Actor{ID: &testActorID, Name: "Claire Martin"}
	testAdmin   = document.Actor{ID: &testActorID, Name: "Claire Martin", Admin: true}
)

// withActor stands in for the token middleware
func withActor(actor document.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ActorKey, actor)
		c.Next()
	}
}

func mount(groups ...router.RouteRegistrar) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	r := router.NewRouter(engine)
	for _, g := range groups {
		r.Register(g)
	}
	r.Setup()
	return engine
}

func perform(engine *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// envelope decodes the response wrapper, leaving data raw for the caller
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	env := decode(t, w)
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", shared.NewValidationError("designation is required"), http.StatusBadRequest, dto.ErrCodeValidation, "designation is required"},
		{"not found", shared.NewNotFoundError("document %s not found", "F-2026-0001"), http.StatusNotFound, dto.ErrCodeNotFound, "document F-2026-0001 not found"},
		{"state conflict", shared.NewStateConflictError("invoice is locked"), http.StatusConflict, dto.ErrCodeStateConflict, "invoice is locked"},
		{"number collision", shared.NewNumberCollisionError("no free number"), http.StatusServiceUnavailable, dto.ErrCodeNumberCollision, "no free number"},
		{"wrapped domain error", errors.Join(errors.New("tx"), shared.NewStateConflictError("paid")), http.StatusConflict, dto.ErrCodeStateConflict, "paid"},
		{"infrastructure", errors.New("connection reset by peer"), http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			engine := gin.New()
			engine.Use(middleware.RequestID())
			engine.GET("/", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w := perform(engine, http.MethodGet, "/", nil)

			assert.Equal(t, tt.status, w.Code)
			env := decode(t, w)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.Equal(t, tt.message, env.Error.Message)
			assert.NotEmpty(t, env.Error.RequestID)
		})
	}
}

func TestBaseHandler_ParamID(t *testing.T) {
	h := &BaseHandler{}
	engine := gin.New()
	engine.GET("/things/:id", func(c *gin.Context) {
		id, ok := h.ParamID(c, "id")
		if ok {
			h.Success(c, id)
		}
	})

	id := uuid.New()
	w := perform(engine, http.MethodGet, "/things/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var got uuid.UUID
	decodeData(t, w, &got)
	assert.Equal(t, id, got)

	w = perform(engine, http.MethodGet, "/things/F-2026-0001", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, dto.ErrCodeBadRequest, env.Error.Code)
	assert.Equal(t, "Invalid id format", env.Error.Message)
}

func TestBaseHandler_BindJSON_ReportsFields(t *testing.T) {
	type payload struct {
		Name string `json:"name" binding:"required"`
	}
	h := &BaseHandler{}
	engine := gin.New()
	engine.POST("/", func(c *gin.Context) {
		var p payload
		if h.BindJSON(c, &p) {
			h.Created(c, p)
		}
	})

	w := perform(engine, http.MethodPost, "/", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
	require.Len(t, env.Error.Details, 1)
	assert.Equal(t, "name", env.Error.Details[0].Field)

	w = perform(engine, http.MethodPost, "/", map[string]string{"name": "Dupont"})
	assert.Equal(t, http.StatusCreated, w.Code)
}
