// File: internal/plan/profile.go
package plan

import (
	"fmt"
	"os"

	json "github.com/json-iterator/go"
)

// Profile carries the product facts and credentials the submission engine
// fills forms from. It is produced by the onboarding flow and read here as
// an opaque collaborator. The password lives only in memory and in the
// operator's local profile file; nothing in the pipeline persists it
// elsewhere.
type Profile struct {
	URL              string   `json:"url"`
	AppURL           string   `json:"app_url,omitempty"`
	GitHub           string   `json:"github,omitempty"`
	Twitter          string   `json:"twitter,omitempty"`
	Name             string   `json:"name"`
	Tagline          string   `json:"tagline,omitempty"`
	Email            string   `json:"email"`
	AuthorName       string   `json:"author_name,omitempty"`
	AuthorFirst      string   `json:"author_first,omitempty"`
	AuthorLast       string   `json:"author_last,omitempty"`
	Username         string   `json:"username,omitempty"`
	Password         string   `json:"password,omitempty"`
	CategoryKeywords []string `json:"category_keywords,omitempty"`
	LogoPath         string   `json:"logo_path,omitempty"`
	ScreenshotPath   string   `json:"screenshot_path,omitempty"`

	// Copies is the pre-generated copy variant pool. Optional in the file;
	// a plan build without any variants is a configuration error.
	Copies []CopyVariant `json:"copies,omitempty"`
}

// Validate checks the fields without which a submission attempt would
// produce garbage. Missing credentials abort a stage run entirely rather
// than yielding half-filled forms.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile: product name is required")
	}
	if p.URL == "" {
		return fmt.Errorf("profile: product url is required")
	}
	if p.Email == "" {
		return fmt.Errorf("profile: contact email is required")
	}
	return nil
}

// LoadProfile reads and validates the profile JSON at path.
func LoadProfile(path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
