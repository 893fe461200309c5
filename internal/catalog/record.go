// File: internal/catalog/record.go
package catalog

// DirectoryRecord is one entry in the catalog of target sites. Records are
// created by the seeding flow, mutated in place by the classify and verify
// stages, and never deleted.
type DirectoryRecord struct {
	Name          string      `json:"name"`
	URL           string      `json:"url"`
	SubmissionURL string      `json:"submission_url,omitempty"`
	SiteStatus    SiteStatus  `json:"site_status,omitempty"`
	AuthType      AuthType    `json:"auth_type,omitempty"`
	CaptchaType   CaptchaType `json:"captcha_type,omitempty"`
	PricingType   PricingType `json:"pricing_type,omitempty"`
	RequiresLogin bool        `json:"requires_login,omitempty"`
	Categories    []string    `json:"categories,omitempty"`
	// PricingSignals keeps the raw keyword hits so an operator can audit
	// how PricingType was derived.
	PricingSignals []string `json:"pricing_signals,omitempty"`
	// AnalysisError records the last probe failure verbatim; triage keys
	// off its text and the verify stage clears it once the site resolves.
	AnalysisError string `json:"analysis_error,omitempty"`
}

// ProbeURL returns the URL a probe should hit: the submission page when we
// have one, the site root otherwise.
func (r *DirectoryRecord) ProbeURL() string {
	if r.SubmissionURL != "" {
		return r.SubmissionURL
	}
	return r.URL
}

// SiteStatus classifies the liveness of a directory site.
type SiteStatus string

const (
	StatusActive            SiteStatus = "active"
	StatusNotFound          SiteStatus = "not_found"
	StatusDomainDead        SiteStatus = "domain_dead"
	StatusTimeout           SiteStatus = "timeout"
	StatusCloudflareBlocked SiteStatus = "cloudflare_blocked"
	StatusError             SiteStatus = "error"
	StatusInvalidURL        SiteStatus = "invalid_url"
	StatusFacebookGroup     SiteStatus = "facebook_group"
	StatusDomainParked      SiteStatus = "domain_parked"
	StatusUnknown           SiteStatus = "unknown"
)

// Terminal reports whether this status excludes the record from further
// processing. Terminal records stay in the catalog for audit but are never
// queued for a browser pass.
func (s SiteStatus) Terminal() bool {
	switch s {
	case StatusDomainDead, StatusNotFound, StatusInvalidURL, StatusFacebookGroup, StatusDomainParked:
		return true
	}
	return false
}

// NeedsReprobe reports whether a stronger probe (browser rendering) might
// still resolve this status.
func (s SiteStatus) NeedsReprobe() bool {
	switch s {
	case StatusUnknown, StatusError, StatusTimeout, StatusCloudflareBlocked, "":
		return true
	}
	return false
}

// Refine applies a newly observed status under the monotonic refinement
// rule: a later stage may narrow an ambiguous status, but an optimistic
// observation never silently overwrites a terminal failure. A terminal
// record must be explicitly re-verified (reprobed=true) to come back.
func (r *DirectoryRecord) Refine(observed SiteStatus, reprobed bool) {
	if observed == "" {
		return
	}
	if r.SiteStatus.Terminal() && !reprobed {
		return
	}
	r.SiteStatus = observed
	if observed == StatusActive {
		// A confirmed-live site invalidates the stale probe error.
		r.AnalysisError = ""
	}
}

// AuthType classifies how a directory gates its submission flow.
type AuthType string

const (
	AuthNone           AuthType = "none"
	AuthEmailPassword  AuthType = "email_password"
	AuthGoogleOnly     AuthType = "google_only"
	AuthGoogleAndEmail AuthType = "google_and_email"
	AuthFacebook       AuthType = "facebook"
	AuthUnknown        AuthType = "unknown"
)

// RequiresAccount reports whether submitting through this directory needs a
// login of any kind. Composite values ("google+github") also count.
func (a AuthType) RequiresAccount() bool {
	switch a {
	case AuthNone, AuthUnknown, "":
		return false
	}
	return true
}

// CaptchaType identifies the captcha vendor detected on a page.
type CaptchaType string

const (
	CaptchaNone       CaptchaType = "none"
	CaptchaRecaptcha  CaptchaType = "recaptcha_v2"
	CaptchaRecaptcha3 CaptchaType = "recaptcha_v3"
	CaptchaHCaptcha   CaptchaType = "hcaptcha"
	CaptchaTurnstile  CaptchaType = "cloudflare_turnstile"
	CaptchaGeneric    CaptchaType = "captcha_unknown"
	CaptchaUnknown    CaptchaType = "unknown"
)

// Blocking reports whether a captcha stands between us and a headless
// submission. Unknown means "we could not tell", which is not a blocker by
// itself; the submit stage re-checks the rendered page anyway.
func (c CaptchaType) Blocking() bool {
	switch c {
	case CaptchaNone, CaptchaUnknown, "":
		return false
	}
	return true
}

// PricingType classifies a directory's listing cost.
type PricingType string

const (
	PricingFree     PricingType = "free"
	PricingFreemium PricingType = "freemium"
	PricingPaid     PricingType = "paid"
	PricingUnknown  PricingType = "unknown"
)

// SubmissionCandidate reports whether the record should enter the
// submission plan at all: the site is confirmed live and a submission page
// is known.
func (r *DirectoryRecord) SubmissionCandidate() bool {
	return r.SiteStatus == StatusActive && r.ProbeURL() != ""
}

// CountByStatus aggregates records for the per-stage completion summary.
func CountByStatus(records []DirectoryRecord) map[SiteStatus]int {
	counts := make(map[SiteStatus]int)
	for _, r := range records {
		s := r.SiteStatus
		if s == "" {
			s = StatusUnknown
		}
		counts[s]++
	}
	return counts
}
