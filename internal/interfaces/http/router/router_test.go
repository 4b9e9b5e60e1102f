package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func say(text string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, text)
	}
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	documents := NewDomainGroup("documents", "/documents")
	documents.GET("/:id", say("get"))
	r.Register(documents).Register(NewDomainGroup("clients", "/clients").GET("", say("list")))
	r.Setup()

	assert.Equal(t, "get", serve(engine, http.MethodGet, "/api/v2/documents/42").Body.String())
	assert.Equal(t, "list", serve(engine, http.MethodGet, "/api/v2/clients").Body.String())
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/clients").Code)
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("documents", "/documents").
		GET("/:id", say("get")).
		POST("", say("post")).
		PUT("/:id", say("put")).
		PATCH("/:id/date", say("patch")).
		DELETE("/:id", say("delete"))
	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodGet, "/api/v1/documents/1", "get"},
		{http.MethodPost, "/api/v1/documents", "post"},
		{http.MethodPut, "/api/v1/documents/1", "put"},
		{http.MethodPatch, "/api/v1/documents/1/date", "patch"},
		{http.MethodDelete, "/api/v1/documents/1", "delete"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := serve(engine, tt.method, tt.target)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestDomainGroup_MiddlewareAndSubgroups(t *testing.T) {
	engine := gin.New()
	var calls []string
	g := NewDomainGroup("clients", "/clients")
	g.Use(func(c *gin.Context) {
		calls = append(calls, c.FullPath())
		c.Next()
	})
	g.GET("", say("clients"))
	g.Group("contacts", "/:id/contacts").GET("", say("contacts"))
	g.RegisterRoutes(engine.Group("/api/v1"))

	assert.Equal(t, "contacts", serve(engine, http.MethodGet, "/api/v1/clients/7/contacts").Body.String())
	assert.Equal(t, "clients", serve(engine, http.MethodGet, "/api/v1/clients").Body.String())
	assert.Equal(t, []string{"/api/v1/clients/:id/contacts", "/api/v1/clients"}, calls)

	assert.Equal(t, []Route{
		{Method: http.MethodGet, Path: "/clients"},
		{Method: http.MethodGet, Path: "/clients/:id/contacts"},
	}, g.Routes())
	assert.Equal(t, "clients", g.Name())
	assert.Equal(t, "/clients", g.Prefix())
}

func TestRouter_Routes(t *testing.T) {
	r := NewRouter(gin.New())
	r.Register(NewDomainGroup("documents", "/documents").GET("/:id", say("get")).POST("", say("post")))

	assert.Equal(t, []Route{
		{Method: http.MethodGet, Path: "/api/v1/documents/:id"},
		{Method: http.MethodPost, Path: "/api/v1/documents"},
	}, r.Routes())
}
