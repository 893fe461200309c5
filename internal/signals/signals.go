// File: internal/signals/signals.go

// Package signals derives classification attributes (auth gate, captcha
// vendor, pricing tier, liveness hints) from page markup. The HTTP
// classifier feeds it raw response bodies; the browser verifier feeds it
// rendered DOM serializations, which is what makes the same heuristics
// usable on JS-heavy pages.
package signals

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xkilldash9x/lister-cli/internal/catalog"
)

// Analysis is the outcome of scanning one page.
type Analysis struct {
	AuthType       catalog.AuthType
	CaptchaType    catalog.CaptchaType
	PricingType    catalog.PricingType
	PricingSignals []string
	RequiresLogin  bool

	// Liveness hints. The caller decides how they refine site_status;
	// body text saying "page not found" on an HTTP 200 is still not_found.
	NotFound            bool
	CloudflareChallenge bool
	DomainParked        bool

	// HasForm reports any submission surface: a real <form>, formless
	// framework-style inputs, or a contenteditable region.
	HasForm bool
}

// Pattern tables. These are accumulated observations from real directory
// pages, not a principled taxonomy; extend them as new sites disprove them.
var (
	googlePatterns = []string{
		"accounts.google.com", "googleapis.com/auth", "google-signin",
		"gsi/client", "sign in with google", "login with google",
		"continue with google", "google.com/o/oauth", "google-login",
		"auth/google", "oauth/google", "btn-google", "btn_google",
		"social-google", "google oauth", "google_oauth",
	}
	githubPatterns = []string{
		"github.com/login/oauth", "sign in with github", "login with github",
		"continue with github", "auth/github", "oauth/github",
		"btn-github", "btn_github", "social-github",
	}
	twitterPatterns = []string{
		"api.twitter.com/oauth", "sign in with twitter", "login with twitter",
		"continue with twitter", "auth/twitter", "sign in with x",
		"continue with x", "login with x", "btn-twitter", "social-twitter",
	}
	facebookPatterns = []string{
		"facebook.com/dialog/oauth", "connect.facebook.net",
		"sign in with facebook", "login with facebook", "continue with facebook",
		"auth/facebook", "oauth/facebook", "btn-facebook", "btn_facebook",
		"social-facebook", "fb-login", "fbconnect",
	}
	loginRequiredPatterns = []string{
		"sign in to continue", "log in to continue", "login to submit",
		"sign up to submit", "create an account", "you must log in",
		"please sign in", "please log in", "sign in to submit",
		"login required", "sign up to continue",
	}
	notFoundPatterns = []string{
		"page not found", "404 error", "this page doesn't exist",
		"page doesn&#39;t exist",
	}
	parkedPatterns = []string{
		"domain is for sale", "buy this domain", "domain may be for sale",
		"parked domain", "this domain is parked",
	}

	recaptchaRe   = regexp.MustCompile(`g-recaptcha|recaptcha/api\.js|grecaptcha`)
	recaptchaV3Re = regexp.MustCompile(`recaptcha/api\.js\?[^"']*render=|grecaptcha\.execute`)
	hcaptchaRe    = regexp.MustCompile(`hcaptcha\.com|h-captcha`)
	turnstileRe   = regexp.MustCompile(`challenges\.cloudflare\.com/turnstile|cf-turnstile`)

	paidRe     = regexp.MustCompile(`\$\d+|paid[^<]{0,20}submission|premium[^<]{0,20}submission|upgrade[^<]{0,20}to[^<]{0,20}submit|pay[^<]{0,20}to[^<]{0,20}submit|/month|/mo\b`)
	freeRe     = regexp.MustCompile(`free[^<]{0,20}submission|submit[^<]{0,20}free|free[^<]{0,20}listing|no[^<]{0,10}cost`)
	freemiumRe = regexp.MustCompile(`freemium|free[^<]{0,10}plan|basic[^<]{0,10}free|free[^<]{0,10}tier`)

	formlessInputRe = regexp.MustCompile(`<input[^>]*type=["'](?:text|email|url|search|tel)["']`)
	jsFormRe        = regexp.MustCompile(`role=["']form["']|data-form|ng-form|formik|react-hook-form`)
)

func matchAny(html string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(html, p) {
			return true
		}
	}
	return false
}

// Analyze scans page markup and the document title. html may be a raw
// response body or a rendered DOM dump; both are handled the same way.
func Analyze(html, title string) Analysis {
	lower := strings.ToLower(html)
	titleLower := strings.ToLower(title)

	a := Analysis{
		AuthType:    catalog.AuthUnknown,
		CaptchaType: catalog.CaptchaNone,
		PricingType: catalog.PricingUnknown,
	}

	// Dead and hostile pages first; their markup often contains stray
	// oauth/captcha strings that would pollute the classification.
	for _, frag := range []string{"404", "not found", "page not found"} {
		if strings.Contains(titleLower, frag) {
			a.NotFound = true
			break
		}
	}
	if matchAny(lower, notFoundPatterns) {
		a.NotFound = true
	}
	if strings.Contains(titleLower, "just a moment") ||
		strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") {
		a.CloudflareChallenge = true
		return a
	}
	if matchAny(lower, parkedPatterns) {
		a.DomainParked = true
		return a
	}

	// Structural facts come from a proper parse, not substring guessing:
	// a password input inside a commented-out template should not count.
	var hasPassword, hasForm, hasVisibleInputs bool
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		hasPassword = doc.Find(`input[type="password"]`).Length() > 0
		hasForm = doc.Find("form").Length() > 0
		hasVisibleInputs = doc.Find(`input[type="text"], input[type="email"], input[type="url"], textarea, [contenteditable="true"]`).Length() > 0
	} else {
		// Unparseable markup: fall back to the regex scan.
		hasPassword = strings.Contains(lower, `type="password"`) || strings.Contains(lower, `type='password'`)
		hasForm = strings.Contains(lower, "<form")
		hasVisibleInputs = formlessInputRe.MatchString(lower)
	}
	a.HasForm = hasForm || hasVisibleInputs || jsFormRe.MatchString(lower)

	providers := DetectProviders(lower)
	a.AuthType = DeriveAuthType(providers, hasPassword, a.HasForm)
	a.RequiresLogin = hasPassword || len(providers) > 0 || matchAny(lower, loginRequiredPatterns)

	a.CaptchaType = detectCaptcha(lower)
	a.PricingType, a.PricingSignals = detectPricing(lower)

	return a
}

// DetectProviders returns the OAuth providers advertised in the markup, in
// a stable order so composite auth strings are deterministic.
func DetectProviders(lowerHTML string) []string {
	var out []string
	if matchAny(lowerHTML, googlePatterns) {
		out = append(out, "google")
	}
	if matchAny(lowerHTML, githubPatterns) {
		out = append(out, "github")
	}
	if matchAny(lowerHTML, twitterPatterns) {
		out = append(out, "twitter")
	}
	if matchAny(lowerHTML, facebookPatterns) {
		out = append(out, "facebook")
	}
	return out
}

// ProvidersFromButtons re-runs provider detection over rendered button
// labels. The deep verifier pass uses this for SPAs whose markup carries no
// oauth URLs until a widget script runs.
func ProvidersFromButtons(labels []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, l := range labels {
		l = strings.ToLower(l)
		if strings.Contains(l, "google") {
			add("google")
		}
		if strings.Contains(l, "github") {
			add("github")
		}
		if strings.Contains(l, "twitter") || strings.Contains(l, " x ") {
			add("twitter")
		}
		if strings.Contains(l, "facebook") {
			add("facebook")
		}
	}
	return out
}

// DeriveAuthType folds the provider set and password-field presence into
// the auth taxonomy. Ambiguity yields unknown, never a guess: downstream
// stages treat unknown as "needs a stronger probe".
func DeriveAuthType(providers []string, hasPassword, hasForm bool) catalog.AuthType {
	hasGoogle := false
	for _, p := range providers {
		if p == "google" {
			hasGoogle = true
		}
	}

	switch {
	case len(providers) == 0 && !hasPassword:
		if hasForm {
			// An open form with no login machinery is a free submission.
			return catalog.AuthNone
		}
		return catalog.AuthUnknown
	case len(providers) == 0 && hasPassword:
		return catalog.AuthEmailPassword
	case hasGoogle && len(providers) == 1 && !hasPassword:
		return catalog.AuthGoogleOnly
	case hasGoogle && len(providers) == 1 && hasPassword:
		return catalog.AuthGoogleAndEmail
	case len(providers) == 1 && providers[0] == "facebook" && !hasPassword:
		return catalog.AuthFacebook
	}

	// Composite gates keep their full shape for the operator's benefit.
	joined := providers
	if hasPassword {
		joined = append(append([]string(nil), providers...), "email_password")
	}
	return catalog.AuthType(strings.Join(joined, "+"))
}

func detectCaptcha(lowerHTML string) catalog.CaptchaType {
	switch {
	case recaptchaV3Re.MatchString(lowerHTML):
		return catalog.CaptchaRecaptcha3
	case recaptchaRe.MatchString(lowerHTML):
		return catalog.CaptchaRecaptcha
	case hcaptchaRe.MatchString(lowerHTML):
		return catalog.CaptchaHCaptcha
	case turnstileRe.MatchString(lowerHTML):
		return catalog.CaptchaTurnstile
	case strings.Contains(lowerHTML, "captcha"):
		return catalog.CaptchaGeneric
	}
	return catalog.CaptchaNone
}

func detectPricing(lowerHTML string) (catalog.PricingType, []string) {
	var hits []string
	paid := paidRe.MatchString(lowerHTML)
	free := freeRe.MatchString(lowerHTML)
	freemium := freemiumRe.MatchString(lowerHTML)
	if paid {
		hits = append(hits, "paid_signals")
	}
	if free {
		hits = append(hits, "free_signals")
	}
	if freemium {
		hits = append(hits, "freemium_signals")
	}

	switch {
	case freemium, paid && free:
		return catalog.PricingFreemium, hits
	case paid:
		return catalog.PricingPaid, hits
	case free:
		return catalog.PricingFree, hits
	}
	return catalog.PricingUnknown, hits
}
