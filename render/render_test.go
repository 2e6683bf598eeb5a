package render

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coreybb/ikizamini/auth"
	"github.com/coreybb/ikizamini/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ParsesEveryPage(t *testing.T) {
	t.Parallel()

	rd, err := New()
	require.NoError(t, err)

	for _, name := range pageNames {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/"+name, nil)
		require.NoError(t, rd.Page(rec, req, name, PageData{}), name)
		assert.Contains(t, rec.Body.String(), "<html", name)
	}
}

func TestPage_UnknownName(t *testing.T) {
	t.Parallel()

	rd, err := New()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/nope", nil)
	assert.Error(t, rd.Page(rec, req, "nope", PageData{}))
}

func TestPage_ShowsFlashAndMarks(t *testing.T) {
	t.Parallel()

	rd, err := New()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/amanota", nil)
	err = rd.Page(rec, req, "amanota", PageData{
		Name:  "Aline",
		Flash: &auth.Flash{Category: auth.FlashSuccess, Message: "Byagenze neza"},
		Marks: []models.Mark{{Score: 8, Total: 10, CreatedAt: time.Now()}},
	})
	require.NoError(t, err)

	body := rec.Body.String()
	assert.Contains(t, body, "Aline")
	assert.Contains(t, body, "Byagenze neza")
	assert.Contains(t, body, ">8<")
}
