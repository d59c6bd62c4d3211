package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinaaaquil/library/circulation"
)

func givenGoogleBooks(t *testing.T, status int, body string) *MetadataClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "isbn:9780132350884", r.URL.Query().Get("q"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return &MetadataClient{BaseURL: srv.URL, HTTP: srv.Client()}
}

func TestMetadataClient_Lookup(t *testing.T) {
	c := givenGoogleBooks(t, http.StatusOK, `{
		"totalItems": 1,
		"items": [{"volumeInfo": {
			"title": "Clean Code",
			"subtitle": "A Handbook of Agile Software Craftsmanship",
			"authors": ["Robert C. Martin"],
			"categories": ["Computers"],
			"industryIdentifiers": [{"type": "ISBN_10", "identifier": "0132350882"}, {"type": "ISBN_13", "identifier": "9780132350884"}]
		}}]
	}`)

	meta, err := c.Lookup(context.Background(), "978-0132350884")

	require.NoError(t, err)
	assert.Equal(t, "Clean Code: A Handbook of Agile Software Craftsmanship", meta.Title)
	assert.Equal(t, "Robert C. Martin", meta.Author)
	assert.Equal(t, "9780132350884", meta.ISBN)
	assert.Equal(t, "Computers", meta.Category)
}

func TestMetadataClient_SubtitleWithoutTitle(t *testing.T) {
	c := givenGoogleBooks(t, http.StatusOK, `{
		"totalItems": 1,
		"items": [{"volumeInfo": {"title": "", "subtitle": "A Handbook of Agile Software Craftsmanship"}}]
	}`)

	meta, err := c.Lookup(context.Background(), "9780132350884")

	require.NoError(t, err)
	assert.Empty(t, meta.Title)
	assert.Nil(t, meta.Edit().Title)
}

func TestMetadataClient_NoVolume(t *testing.T) {
	c := givenGoogleBooks(t, http.StatusOK, `{"totalItems": 0}`)

	_, err := c.Lookup(context.Background(), "9780132350884")

	assert.ErrorIs(t, err, ErrNoVolume)
}

func TestMetadataClient_UpstreamError(t *testing.T) {
	c := givenGoogleBooks(t, http.StatusServiceUnavailable, ``)

	_, err := c.Lookup(context.Background(), "9780132350884")

	assert.ErrorContains(t, err, "503")
}

func TestMetadataClient_InvalidISBN(t *testing.T) {
	c := &MetadataClient{BaseURL: "http://unused.invalid", HTTP: http.DefaultClient}

	_, err := c.Lookup(context.Background(), "123")

	assert.ErrorIs(t, err, circulation.ErrInvalidRequest)
}

func TestBookMetadata_Edit(t *testing.T) {
	e := BookMetadata{Title: "Clean Code", ISBN: "9780132350884"}.Edit()

	require.NotNil(t, e.Title)
	assert.Equal(t, "Clean Code", *e.Title)
	assert.Nil(t, e.Author)
	assert.Nil(t, e.Category)
	require.NotNil(t, e.ISBN)
}
