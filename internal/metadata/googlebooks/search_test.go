package googlebooks

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const volumesFixture = `{
	"totalItems": 2,
	"items": [
		{
			"id": "zyTCAlFPjgYC",
			"volumeInfo": {
				"title": "The Google Story",
				"authors": ["David A. Vise", "Mark Malseed"],
				"publisher": "Random House",
				"publishedDate": "2005-11-15",
				"description": "The definitive account.",
				"pageCount": 207,
				"categories": ["Business & Economics"],
				"language": "en",
				"industryIdentifiers": [
					{"type": "ISBN_10", "identifier": "055380457X"},
					{"type": "ISBN_13", "identifier": "9780553804577"}
				],
				"imageLinks": {
					"smallThumbnail": "http://books.google.com/small.jpg",
					"thumbnail": "http://books.google.com/thumb.jpg"
				}
			}
		},
		{
			"id": "notitle123",
			"volumeInfo": {}
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(slog.New(slog.DiscardHandler), WithBaseURL(srv.URL))
}

func TestSearchBooks(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(volumesFixture))
	})

	results, err := client.SearchBooks(context.Background(), "the google story")
	require.NoError(t, err)
	assert.Equal(t, "the google story", gotQuery)

	// The title-less volume is dropped.
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "zyTCAlFPjgYC", r.ID)
	assert.Equal(t, "The Google Story", r.Title)
	assert.Equal(t, []string{"David A. Vise", "Mark Malseed"}, r.Authors)
	assert.Equal(t, 207, r.PageCount)
	assert.Equal(t, "055380457X", r.ISBN10)
	assert.Equal(t, "9780553804577", r.ISBN13)
	assert.Equal(t, []string{"Business & Economics"}, r.Categories)
	assert.Equal(t, "https://books.google.com/thumb.jpg", r.CoverURL)
}

func TestSearchBooks_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.SearchBooks(context.Background(), "anything")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestSearchByISBN_StripsSeparators(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{"totalItems":0,"items":[]}`))
	})

	_, err := client.SearchByISBN(context.Background(), "978-0-553-80457-7")
	require.NoError(t, err)
	assert.Equal(t, "isbn:9780553804577", gotQuery)
}

func TestSearchByTitleAndAuthor(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{"totalItems":0,"items":[]}`))
	})

	_, err := client.SearchByTitleAndAuthor(context.Background(), "Dune", "Frank Herbert")
	require.NoError(t, err)
	assert.Equal(t, "intitle:Dune inauthor:Frank Herbert", gotQuery)
}

func TestSearchBooks_APIKeyAttached(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		_, _ = w.Write([]byte(`{"totalItems":0,"items":[]}`))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(slog.New(slog.DiscardHandler), WithBaseURL(srv.URL), WithAPIKey("secret-key"))
	_, err := client.SearchBooks(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "secret-key", gotKey)
}

func TestFetchCover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(slog.New(slog.DiscardHandler))
	data, err := client.FetchCover(context.Background(), srv.URL+"/cover.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
}

func TestFetchCover_RejectsNonImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>not a cover</html>"))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(slog.New(slog.DiscardHandler))
	_, err := client.FetchCover(context.Background(), srv.URL+"/cover.jpg")
	assert.Error(t, err)
}
