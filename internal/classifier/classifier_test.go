// File: internal/classifier/classifier_test.go
package classifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lister-cli/internal/catalog"
	"github.com/xkilldash9x/lister-cli/internal/config"
	"github.com/xkilldash9x/lister-cli/internal/store"
)

func testConfig() config.ClassifierConfig {
	return config.ClassifierConfig{
		Concurrency:    4,
		RequestTimeout: 5 * time.Second,
		UserAgent:      "lister-test",
	}
}

func TestClassifyDeadDomain(t *testing.T) {
	c := New(testConfig(), zap.NewNop())
	rec := catalog.DirectoryRecord{
		Name: "gone",
		URL:  "https://this-domain-does-not-resolve.invalid",
	}

	c.Probe(context.Background(), &rec)

	assert.Equal(t, catalog.StatusDomainDead, rec.SiteStatus)
	assert.Equal(t, catalog.AuthUnknown, rec.AuthType)
	assert.NotEmpty(t, rec.AnalysisError)
}

func TestClassifyNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(testConfig(), zap.NewNop())
	rec := catalog.DirectoryRecord{Name: "missing", URL: srv.URL + "/submit"}
	c.Probe(context.Background(), &rec)

	assert.Equal(t, catalog.StatusNotFound, rec.SiteStatus)
	assert.Equal(t, "HTTP 404", rec.AnalysisError)
}

func TestClassifyActiveOpenForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>
			<p>Free submission for indie tools</p>
			<form method="post"><input type="text" name="name"><input type="email" name="email"></form>
		</body></html>`))
	}))
	defer srv.Close()

	c := New(testConfig(), zap.NewNop())
	rec := catalog.DirectoryRecord{Name: "open", URL: srv.URL}
	c.Probe(context.Background(), &rec)

	assert.Equal(t, catalog.StatusActive, rec.SiteStatus)
	assert.Equal(t, catalog.AuthNone, rec.AuthType)
	assert.Equal(t, catalog.CaptchaNone, rec.CaptchaType)
	assert.Equal(t, catalog.PricingFree, rec.PricingType)
	assert.Empty(t, rec.AnalysisError)
}

func TestClassifyGoogleGate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><a href="/auth/google">Continue with Google</a></body></html>`))
	}))
	defer srv.Close()

	c := New(testConfig(), zap.NewNop())
	rec := catalog.DirectoryRecord{Name: "gated", URL: srv.URL}
	c.Probe(context.Background(), &rec)

	assert.Equal(t, catalog.StatusActive, rec.SiteStatus)
	assert.Equal(t, catalog.AuthGoogleOnly, rec.AuthType)
	assert.True(t, rec.RequiresLogin)
}

func TestClassifyBotChallenge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`<html><title>Just a moment...</title><body>Checking your browser</body></html>`))
	}))
	defer srv.Close()

	c := New(testConfig(), zap.NewNop())
	rec := catalog.DirectoryRecord{Name: "shielded", URL: srv.URL}
	c.Probe(context.Background(), &rec)

	assert.Equal(t, catalog.StatusCloudflareBlocked, rec.SiteStatus)
}

func TestClassifyTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.RequestTimeout = 100 * time.Millisecond
	c := New(cfg, zap.NewNop())
	rec := catalog.DirectoryRecord{Name: "slow", URL: srv.URL}
	c.Probe(context.Background(), &rec)

	assert.Equal(t, catalog.StatusTimeout, rec.SiteStatus)
}

func TestVetURL(t *testing.T) {
	cases := []struct {
		url  string
		want catalog.SiteStatus
	}{
		{"", catalog.StatusInvalidURL},
		{"not a url", catalog.StatusInvalidURL},
		{"ftp://example.com", catalog.StatusInvalidURL},
		{"https://example.com/**glob**", catalog.StatusInvalidURL},
		{`https://example.com/"quoted"`, catalog.StatusInvalidURL},
		{"https://facebook.com/groups/12345", catalog.StatusFacebookGroup},
		{"https://example.com/submit", ""},
	}
	for _, tc := range cases {
		status, _ := vetURL(tc.url)
		assert.Equal(t, tc.want, status, tc.url)
	}
}

func TestClassifyFacebookGroup(t *testing.T) {
	c := New(testConfig(), zap.NewNop())
	rec := catalog.DirectoryRecord{Name: "fb", URL: "https://facebook.com/groups/sometools"}
	c.Probe(context.Background(), &rec)

	assert.Equal(t, catalog.StatusFacebookGroup, rec.SiteStatus)
	assert.Equal(t, catalog.AuthFacebook, rec.AuthType)
	assert.True(t, rec.RequiresLogin)
}

func TestRunClassifiesWholeCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<form><input type="text" name="name"></form>`))
	}))
	defer srv.Close()

	cat := &store.MemCatalog{Records: []catalog.DirectoryRecord{
		{Name: "a", URL: srv.URL + "/a"},
		{Name: "b", URL: srv.URL + "/b"},
		{Name: "bad", URL: "nonsense"},
	}}

	c := New(testConfig(), zap.NewNop())
	summary, err := c.Run(context.Background(), cat)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.ByStatus[catalog.StatusActive])
	assert.Equal(t, 1, summary.ByStatus[catalog.StatusInvalidURL])
	assert.Equal(t, 1, cat.Saves, "results are written back once")
}
