// File: internal/matcher/matcher.go

// Package matcher maps discovered form fields onto product profile values.
// It is deliberately heuristic: directory forms are hand-built by hundreds
// of different authors, so the matcher scores each field's attribute text
// against a keyword table instead of trusting any single attribute.
package matcher

import (
	"strings"

	"github.com/xkilldash9x/lister-cli/internal/config"
	"github.com/xkilldash9x/lister-cli/internal/plan"
)

// FillInstruction is one selector/value pair handed to the in-page fill
// script. Selectors come straight from discovery; values from the profile.
type FillInstruction struct {
	Selector string `json:"selector"`
	Value    string `json:"value"`
}

// Upload pairs a file input with the local asset to attach to it.
type Upload struct {
	Selector string
	Path     string
}

// Result is the matcher's verdict on one form.
type Result struct {
	Instructions []FillInstruction
	Uploads      []Upload
	// UnmatchedRequired lists required fillable fields the matcher could
	// not resolve. One of these sinks the form: the submission engine
	// never submits around an unanswered required field.
	UnmatchedRequired []plan.FieldDescriptor
}

// Matcher scores form fields against the profile keyword table.
type Matcher struct {
	minConfidence float64
}

// New returns a Matcher with the configured confidence threshold.
func New(cfg config.MatcherConfig) *Matcher {
	return &Matcher{minConfidence: cfg.MinConfidence}
}

// rule maps a keyword group to a profile value. Rules are ordered from
// specific to generic so ties on score resolve toward the specific match
// ("first name" beats "name").
type rule struct {
	keywords []string
	value    func(p *plan.Profile, c plan.CopyVariant) string
	// skip marks fields we recognize but must never fill (captchas,
	// phone numbers, coupon codes). A skipped required field still counts
	// as unmatched so the engine holds the submit click.
	skip bool
}

var rules = []rule{
	{keywords: []string{"captcha", "recaptcha", "hcaptcha", "turnstile"}, skip: true},
	{keywords: []string{"phone", "tel", "mobile"}, skip: true},
	{keywords: []string{"coupon", "promo", "discount", "referral"}, skip: true},

	{keywords: []string{"first name", "firstname", "fname", "given name"},
		value: func(p *plan.Profile, _ plan.CopyVariant) string { return p.AuthorFirst }},
	{keywords: []string{"last name", "lastname", "lname", "surname", "family name"},
		value: func(p *plan.Profile, _ plan.CopyVariant) string { return p.AuthorLast }},
	{keywords: []string{"your name", "full name", "author", "contact name", "founder", "maker"},
		value: func(p *plan.Profile, _ plan.CopyVariant) string { return p.AuthorName }},

	{keywords: []string{"email", "e-mail", "mail"},
		value: func(p *plan.Profile, _ plan.CopyVariant) string { return p.Email }},
	{keywords: []string{"username", "user name", "nickname", "handle"},
		value: func(p *plan.Profile, _ plan.CopyVariant) string { return p.Username }},
	{keywords: []string{"password", "passwd"},
		value: func(p *plan.Profile, _ plan.CopyVariant) string { return p.Password }},

	{keywords: []string{"github", "repository", "repo", "source code"},
		value: func(p *plan.Profile, _ plan.CopyVariant) string { return p.GitHub }},
	{keywords: []string{"twitter", "x profile"},
		value: func(p *plan.Profile, _ plan.CopyVariant) string { return p.Twitter }},
	{keywords: []string{"app url", "app link", "download link"},
		value: func(p *plan.Profile, _ plan.CopyVariant) string {
			if p.AppURL != "" {
				return p.AppURL
			}
			return p.URL
		}},
	{keywords: []string{"url", "website", "web site", "link", "homepage", "domain", "site url"},
		value: func(p *plan.Profile, _ plan.CopyVariant) string { return p.URL }},

	{keywords: []string{"tagline", "headline", "slogan", "subtitle", "short description", "one liner"},
		value: func(p *plan.Profile, c plan.CopyVariant) string {
			if p.Tagline != "" {
				return p.Tagline
			}
			return c.Title
		}},
	{keywords: []string{"title"},
		value: func(_ *plan.Profile, c plan.CopyVariant) string { return c.Title }},
	{keywords: []string{"description", "desc", "about", "summary", "details", "overview", "pitch", "message", "comment", "body"},
		value: func(_ *plan.Profile, c plan.CopyVariant) string { return c.Description }},

	{keywords: []string{"category", "topic", "industry", "niche", "tags", "keywords"},
		value: func(p *plan.Profile, _ plan.CopyVariant) string { return strings.Join(p.CategoryKeywords, " ") }},
	{keywords: []string{"company", "organization", "organisation", "startup", "business name"},
		value: func(p *plan.Profile, _ plan.CopyVariant) string { return p.Name }},
	{keywords: []string{"job", "role", "position", "occupation"},
		value: func(_ *plan.Profile, _ plan.CopyVariant) string { return "Founder" }},

	{keywords: []string{"name", "product", "app name", "tool", "project"},
		value: func(p *plan.Profile, _ plan.CopyVariant) string { return p.Name }},
}

// Match resolves every fillable field of the form. It never returns an
// error: an unmatchable form is a legitimate outcome the caller turns into
// a target status.
func (m *Matcher) Match(form *plan.DiscoveredForm, p *plan.Profile, c plan.CopyVariant) Result {
	var res Result
	for _, f := range form.Fields {
		if !f.Fillable() || f.Selector == "" {
			continue
		}
		if f.Type == "file" {
			if up, ok := uploadFor(f, p); ok {
				res.Uploads = append(res.Uploads, up)
			} else if f.Required {
				res.UnmatchedRequired = append(res.UnmatchedRequired, f)
			}
			continue
		}
		value, ok := m.resolve(f, p, c)
		if !ok || value == "" {
			if f.Required {
				res.UnmatchedRequired = append(res.UnmatchedRequired, f)
			}
			continue
		}
		res.Instructions = append(res.Instructions, FillInstruction{Selector: f.Selector, Value: value})
	}
	return res
}

func (m *Matcher) resolve(f plan.FieldDescriptor, p *plan.Profile, c plan.CopyVariant) (string, bool) {
	// Input types that declare their meaning outrank any label heuristics.
	switch f.Type {
	case "email":
		return p.Email, true
	case "url":
		return p.URL, true
	case "password":
		return p.Password, p.Password != ""
	case "tel", "number", "range", "color":
		return "", false
	case "date":
		return "2025-01-01", true
	}

	tokens := fieldTokens(f)
	if len(tokens) == 0 {
		return "", false
	}

	bestScore := 0.0
	bestIdx := -1
	for i, r := range rules {
		s := score(r.keywords, tokens)
		if s > bestScore {
			bestScore, bestIdx = s, i
		}
	}
	if bestIdx >= 0 && bestScore >= m.minConfidence {
		if rules[bestIdx].skip {
			return "", false
		}
		return rules[bestIdx].value(p, c), true
	}

	// A lone unlabeled textarea is almost always the description box.
	if f.Tag == "textarea" {
		return c.Description, true
	}
	return "", false
}

// uploadFor maps a file input onto the profile's image assets by the same
// attribute text the value matcher reads. Logo-ish inputs get the logo;
// any other file input defaults to the screenshot, since an unlabeled file
// input on a listing form is almost always the product image slot.
func uploadFor(f plan.FieldDescriptor, p *plan.Profile) (Upload, bool) {
	text := strings.ToLower(f.Name + " " + f.ID + " " + f.Placeholder + " " + f.Label)
	if containsAny(text, "logo", "icon", "avatar") && p.LogoPath != "" {
		return Upload{Selector: f.Selector, Path: p.LogoPath}, true
	}
	if p.ScreenshotPath != "" {
		return Upload{Selector: f.Selector, Path: p.ScreenshotPath}, true
	}
	return Upload{}, false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// fieldTokens flattens the field's descriptive attributes into a token set.
func fieldTokens(f plan.FieldDescriptor) []string {
	raw := strings.ToLower(f.Name + " " + f.ID + " " + f.Placeholder + " " + f.Label)
	return tokenize(raw)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}

// score rates how well a keyword group describes the field's tokens:
// a full multiword phrase scores 1.0, a whole-token match 0.9, and a
// prefix/substring hit ("desc" inside "description") 0.7.
func score(keywords []string, tokens []string) float64 {
	best := 0.0
	for _, kw := range keywords {
		kwTokens := tokenize(kw)
		if len(kwTokens) == 0 {
			continue
		}
		if allPresent(kwTokens, tokens) {
			if len(kwTokens) > 1 {
				return 1.0
			}
			if best < 0.9 {
				best = 0.9
			}
			continue
		}
		if len(kwTokens) == 1 {
			for _, t := range tokens {
				if strings.Contains(t, kwTokens[0]) || strings.Contains(kwTokens[0], t) && len(t) >= 3 {
					if best < 0.7 {
						best = 0.7
					}
				}
			}
		}
	}
	return best
}

func allPresent(needles, haystack []string) bool {
	for _, n := range needles {
		found := false
		for _, h := range haystack {
			if h == n {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
