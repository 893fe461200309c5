// File: internal/catalog/record_test.go
package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefineMonotonicity(t *testing.T) {
	t.Run("terminal status survives optimistic observation", func(t *testing.T) {
		r := DirectoryRecord{Name: "dead", SiteStatus: StatusDomainDead}
		r.Refine(StatusActive, false)
		assert.Equal(t, StatusDomainDead, r.SiteStatus,
			"a non-reprobe observation must not resurrect a terminal record")
	})

	t.Run("reprobe may resurrect a terminal record", func(t *testing.T) {
		r := DirectoryRecord{Name: "dead", SiteStatus: StatusNotFound, AnalysisError: "HTTP 404"}
		r.Refine(StatusActive, true)
		assert.Equal(t, StatusActive, r.SiteStatus)
		assert.Empty(t, r.AnalysisError, "a confirmed-live site clears the stale probe error")
	})

	t.Run("ambiguous status always narrows", func(t *testing.T) {
		for _, from := range []SiteStatus{"", StatusUnknown, StatusError, StatusTimeout, StatusCloudflareBlocked} {
			r := DirectoryRecord{SiteStatus: from}
			r.Refine(StatusActive, false)
			assert.Equal(t, StatusActive, r.SiteStatus, "from %q", from)
		}
	})

	t.Run("empty observation is a no-op", func(t *testing.T) {
		r := DirectoryRecord{SiteStatus: StatusActive}
		r.Refine("", true)
		assert.Equal(t, StatusActive, r.SiteStatus)
	})
}

func TestSiteStatusPredicates(t *testing.T) {
	terminal := []SiteStatus{StatusDomainDead, StatusNotFound, StatusInvalidURL, StatusFacebookGroup, StatusDomainParked}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), "%q should be terminal", s)
		assert.False(t, s.NeedsReprobe(), "%q should not be reprobed", s)
	}

	reprobe := []SiteStatus{StatusUnknown, StatusError, StatusTimeout, StatusCloudflareBlocked, ""}
	for _, s := range reprobe {
		assert.True(t, s.NeedsReprobe(), "%q should need a reprobe", s)
		assert.False(t, s.Terminal(), "%q should not be terminal", s)
	}

	assert.False(t, StatusActive.Terminal())
	assert.False(t, StatusActive.NeedsReprobe())
}

func TestAuthTypeRequiresAccount(t *testing.T) {
	assert.False(t, AuthNone.RequiresAccount())
	assert.False(t, AuthUnknown.RequiresAccount())
	assert.False(t, AuthType("").RequiresAccount())

	assert.True(t, AuthEmailPassword.RequiresAccount())
	assert.True(t, AuthGoogleOnly.RequiresAccount())
	assert.True(t, AuthType("google+github").RequiresAccount(), "composite gates count")
}

func TestCaptchaTypeBlocking(t *testing.T) {
	assert.False(t, CaptchaNone.Blocking())
	assert.False(t, CaptchaUnknown.Blocking())
	assert.True(t, CaptchaRecaptcha.Blocking())
	assert.True(t, CaptchaTurnstile.Blocking())
	assert.True(t, CaptchaGeneric.Blocking())
}

func TestSubmissionCandidate(t *testing.T) {
	r := DirectoryRecord{Name: "a", URL: "https://a.example", SiteStatus: StatusActive}
	require.True(t, r.SubmissionCandidate())

	r.SiteStatus = StatusTimeout
	assert.False(t, r.SubmissionCandidate())

	r = DirectoryRecord{Name: "b", SiteStatus: StatusActive}
	assert.False(t, r.SubmissionCandidate(), "no URL at all")
}

func TestProbeURLPrefersSubmissionPage(t *testing.T) {
	r := DirectoryRecord{URL: "https://a.example", SubmissionURL: "https://a.example/submit"}
	assert.Equal(t, "https://a.example/submit", r.ProbeURL())

	r.SubmissionURL = ""
	assert.Equal(t, "https://a.example", r.ProbeURL())
}

func TestCountByStatus(t *testing.T) {
	records := []DirectoryRecord{
		{SiteStatus: StatusActive},
		{SiteStatus: StatusActive},
		{SiteStatus: StatusDomainDead},
		{}, // unclassified counts as unknown
	}
	counts := CountByStatus(records)
	assert.Equal(t, 2, counts[StatusActive])
	assert.Equal(t, 1, counts[StatusDomainDead])
	assert.Equal(t, 1, counts[StatusUnknown])
}
