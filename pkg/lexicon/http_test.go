package lexicon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	body, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return body
}

func TestParsePage(t *testing.T) {
	u, _ := url.Parse("http://localhost/synonyme/rire")
	page, err := ParsePage(readFixture(t, "synonyme_rire.html"), u)
	require.NoError(t, err)

	assert.True(t, page.Found)
	assert.Equal(t, []string{"s'amuser", "Glousser", "se moquer", "plaisanter"}, page.Words)
	assert.NotEmpty(t, page.Title)
}

func TestParsePageWithoutWordList(t *testing.T) {
	u, _ := url.Parse("http://localhost/synonyme/zzz")
	page, err := ParsePage(readFixture(t, "no_entry.html"), u)
	require.NoError(t, err)
	assert.False(t, page.Found)
	assert.Empty(t, page.Words)
}

func newFixtureServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	rire := readFixture(t, "synonyme_rire.html")
	empty := readFixture(t, "no_entry.html")
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch strings.TrimPrefix(r.URL.Path, "/synonyme/") {
		case "rire":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(rire)
		case "vide":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(empty)
		case "panne":
			http.Error(w, "down", http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestHTTPSourceFetch(t *testing.T) {
	srv, hits := newFixtureServer(t)
	src := NewHTTPSource(srv.URL+"/synonyme/", WithRate(0, 0))

	res, err := src.Fetch(context.Background(), "rire")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Len(t, res.Words, 4)
	assert.Equal(t, srv.URL+"/synonyme/rire", res.URL)

	res, err = src.Fetch(context.Background(), "vide")
	require.NoError(t, err)
	assert.False(t, res.Found, "page without a word list is not found")

	res, err = src.Fetch(context.Background(), "inconnu")
	require.NoError(t, err)
	assert.False(t, res.Found, "404 is not found, not a fault")

	_, err = src.Fetch(context.Background(), "panne")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))

	assert.EqualValues(t, 4, atomic.LoadInt32(hits))
}

func TestHTTPSourceBodyLimit(t *testing.T) {
	srv, _ := newFixtureServer(t)
	src := NewHTTPSource(srv.URL+"/synonyme", WithMaxBodySize(64))

	_, err := src.Fetch(context.Background(), "rire")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestHTTPSourceUnreachable(t *testing.T) {
	srv, _ := newFixtureServer(t)
	base := srv.URL
	srv.Close()

	src := NewHTTPSource(base, WithClient(&http.Client{Timeout: time.Second}))
	_, err := src.Fetch(context.Background(), "rire")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestHTTPSourceCancelled(t *testing.T) {
	srv, _ := newFixtureServer(t)
	src := NewHTTPSource(srv.URL, WithRate(1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Fetch(ctx, "rire")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTransport)
}

func TestPageURLEscapesWords(t *testing.T) {
	src := NewHTTPSource("http://example.com/synonyme/")
	assert.Equal(t, "http://example.com/synonyme/%C3%A9t%C3%A9", src.PageURL("été"))
	assert.Equal(t, "http://example.com/synonyme/mettre%20bas", src.PageURL("mettre bas"))
}

func TestStaticSource(t *testing.T) {
	s := Static{"rire": {"sourire"}, "vide": nil}
	res, err := s.Fetch(context.Background(), "rire")
	require.NoError(t, err)
	assert.Equal(t, Result{Found: true, Words: []string{"sourire"}}, res)

	res, _ = s.Fetch(context.Background(), "vide")
	assert.True(t, res.Found)
	assert.Empty(t, res.Words)

	res, _ = s.Fetch(context.Background(), "absent")
	assert.False(t, res.Found)
}
