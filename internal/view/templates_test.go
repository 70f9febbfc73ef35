package view

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderPages(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	for _, name := range []string{
		"pages/landing.html",
		"pages/login.html",
		"pages/register.html",
		"pages/home.html",
	} {
		rec := httptest.NewRecorder()
		err := engine.Render(rec, name, TemplateData{
			Title:       "Test",
			CSRFToken:   "token",
			CurrentPath: "/",
		})
		require.NoError(t, err, name)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "ArenaHub")
	}
}

func TestRenderNilEngine(t *testing.T) {
	var engine *Engine
	err := engine.Render(httptest.NewRecorder(), "pages/landing.html", TemplateData{})
	assert.Error(t, err)
}
