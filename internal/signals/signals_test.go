// File: internal/signals/signals_test.go
package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/lister-cli/internal/catalog"
)

func TestAnalyzeGoogleOnlyGate(t *testing.T) {
	// A page whose only way in is a Google button: no password field, no
	// open submission form.
	html := `<html><body>
		<h1>Submit your tool</h1>
		<a class="btn" href="/auth/google">Continue with Google</a>
	</body></html>`

	a := Analyze(html, "Submit - Example Directory")
	assert.Equal(t, catalog.AuthGoogleOnly, a.AuthType)
	assert.True(t, a.RequiresLogin)
	assert.Equal(t, catalog.CaptchaNone, a.CaptchaType)
}

func TestAnalyzeOpenFormIsAuthNone(t *testing.T) {
	html := `<html><body>
		<form action="/submit" method="post">
			<input type="text" name="name">
			<input type="email" name="email">
			<textarea name="description"></textarea>
		</form>
	</body></html>`

	a := Analyze(html, "Submit your startup")
	assert.Equal(t, catalog.AuthNone, a.AuthType)
	assert.True(t, a.HasForm)
	assert.False(t, a.RequiresLogin)
}

func TestAnalyzePasswordFieldMeansEmailPassword(t *testing.T) {
	html := `<form><input type="email" name="email"><input type="password" name="pw"></form>`
	a := Analyze(html, "Login")
	assert.Equal(t, catalog.AuthEmailPassword, a.AuthType)
	assert.True(t, a.RequiresLogin)
}

func TestAnalyzeCompositeGate(t *testing.T) {
	html := `<div>
		<a href="/auth/google">Sign in with Google</a>
		<a href="/auth/github">Sign in with GitHub</a>
	</div>`
	a := Analyze(html, "Sign in")
	assert.Equal(t, catalog.AuthType("google+github"), a.AuthType)
}

func TestAnalyzeGoogleAndEmail(t *testing.T) {
	html := `<form><input type="password" name="pw"></form>
		<a href="/auth/google">Continue with Google</a>`
	a := Analyze(html, "Sign in")
	assert.Equal(t, catalog.AuthGoogleAndEmail, a.AuthType)
}

func TestAnalyzeCaptchaVendors(t *testing.T) {
	cases := []struct {
		name string
		html string
		want catalog.CaptchaType
	}{
		{"recaptcha v2", `<div class="g-recaptcha" data-sitekey="x"></div>`, catalog.CaptchaRecaptcha},
		{"recaptcha v3 wins over v2", `<script src="https://www.google.com/recaptcha/api.js?render=sitekey"></script>`, catalog.CaptchaRecaptcha3},
		{"hcaptcha", `<div class="h-captcha"></div>`, catalog.CaptchaHCaptcha},
		{"turnstile", `<div class="cf-turnstile"></div>`, catalog.CaptchaTurnstile},
		{"generic mention", `<p>complete the captcha below</p>`, catalog.CaptchaGeneric},
		{"none", `<p>welcome</p>`, catalog.CaptchaNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := Analyze(tc.html, "")
			assert.Equal(t, tc.want, a.CaptchaType)
		})
	}
}

func TestAnalyzePricing(t *testing.T) {
	a := Analyze(`<p>Free submission for all tools</p>`, "")
	assert.Equal(t, catalog.PricingFree, a.PricingType)

	a = Analyze(`<p>Listing costs $49/month</p>`, "")
	assert.Equal(t, catalog.PricingPaid, a.PricingType)
	assert.Contains(t, a.PricingSignals, "paid_signals")

	// Paid and free signals together read as a freemium tier.
	a = Analyze(`<p>Free submission, or $29 for a featured listing</p>`, "")
	assert.Equal(t, catalog.PricingFreemium, a.PricingType)
}

func TestAnalyzeLivenessShortCircuits(t *testing.T) {
	a := Analyze(`<p>Checking your browser before accessing</p>`, "Just a moment...")
	assert.True(t, a.CloudflareChallenge)
	assert.Equal(t, catalog.AuthUnknown, a.AuthType, "challenge pages must not be classified further")

	a = Analyze(`<h1>This domain is parked</h1>`, "")
	assert.True(t, a.DomainParked)

	a = Analyze(`<h1>Page not found</h1>`, "404 Not Found")
	assert.True(t, a.NotFound)
}

func TestProvidersFromButtons(t *testing.T) {
	providers := ProvidersFromButtons([]string{
		"continue with google",
		"Sign in with GitHub",
		"continue with google", // duplicate
	})
	assert.Equal(t, []string{"google", "github"}, providers)
}

func TestDeriveAuthTypeAmbiguityStaysUnknown(t *testing.T) {
	// No providers, no password, no form: nothing to conclude.
	assert.Equal(t, catalog.AuthUnknown, DeriveAuthType(nil, false, false))
}

func TestDeriveAuthTypeFacebookOnly(t *testing.T) {
	assert.Equal(t, catalog.AuthFacebook, DeriveAuthType([]string{"facebook"}, false, false))
}

func TestDeriveAuthTypeProvidersPlusPassword(t *testing.T) {
	got := DeriveAuthType([]string{"github", "twitter"}, true, true)
	assert.Equal(t, catalog.AuthType("github+twitter+email_password"), got)
}
