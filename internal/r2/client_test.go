package r2

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"studyguideai/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putRecord struct {
	method      string
	path        string
	contentType string
	acl         string
	body        string
}

func fakeBucket(t *testing.T, status int) (*httptest.Server, func() []putRecord) {
	t.Helper()
	var mu sync.Mutex
	var puts []putRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		puts = append(puts, putRecord{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			acl:         r.Header.Get("X-Amz-Acl"),
			body:        string(body),
		})
		mu.Unlock()
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []putRecord {
		mu.Lock()
		defer mu.Unlock()
		return append([]putRecord(nil), puts...)
	}
}

func testConfig() config.R2Config {
	return config.R2Config{
		AccountID:       "acct",
		Bucket:          "guides",
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
		PublicURL:       "https://pub.example.dev/base",
	}
}

func TestNewClientUnconfigured(t *testing.T) {
	c, err := NewClient(context.Background(), config.R2Config{Bucket: "only"})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestUploadGuide(t *testing.T) {
	srv, puts := fakeBucket(t, http.StatusOK)
	c, err := newClient(context.Background(), testConfig(), srv.URL)
	require.NoError(t, err)

	userID, materialID := uuid.New(), uuid.New()
	got, err := c.UploadGuide(context.Background(), userID, materialID, "<h1>Cells</h1>")
	require.NoError(t, err)

	key := ObjectKey(userID, materialID, GuideFilename)
	assert.Equal(t, "https://pub.example.dev/base/"+key, got)

	recs := puts()
	require.Len(t, recs, 1)
	assert.Equal(t, http.MethodPut, recs[0].method)
	assert.Equal(t, "/guides/"+key, recs[0].path)
	assert.Contains(t, recs[0].contentType, "text/html")
	assert.Equal(t, "public-read", recs[0].acl)
	assert.Equal(t, "<h1>Cells</h1>", recs[0].body)
}

func TestUploadGuideFailure(t *testing.T) {
	srv, _ := fakeBucket(t, http.StatusForbidden)
	c, err := newClient(context.Background(), testConfig(), srv.URL)
	require.NoError(t, err)

	_, err = c.UploadGuide(context.Background(), uuid.New(), uuid.New(), "x")
	assert.ErrorContains(t, err, "failed to upload file to R2")
}

func TestUploadGuideNilClient(t *testing.T) {
	var c *Client
	_, err := c.UploadGuide(context.Background(), uuid.New(), uuid.New(), "x")
	assert.Error(t, err)
}
