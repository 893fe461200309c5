// File: internal/plan/plan.go
package plan

import (
	"fmt"

	"github.com/xkilldash9x/lister-cli/internal/catalog"
)

// TargetStatus tracks a SubmissionTarget through the pipeline. Transitions
// are monotone along the phase order; every non-submitted terminal status is
// stable and only an explicit operator rerun revisits it.
type TargetStatus string

const (
	TargetPending    TargetStatus = "pending"
	TargetDiscovered TargetStatus = "discovered"

	// Discovery outcomes.
	TargetNoFormFound   TargetStatus = "no_form_found"
	TargetLoginRequired TargetStatus = "login_required"
	TargetTimeout       TargetStatus = "timeout"
	TargetError         TargetStatus = "error"

	// Submission outcomes.
	TargetSubmitted       TargetStatus = "submitted"
	TargetFilledNoSubmit  TargetStatus = "filled_no_submit"
	TargetNoFieldsMatched TargetStatus = "no_fields_matched"
	TargetCaptcha         TargetStatus = "captcha"
	TargetSkippedLogin    TargetStatus = "skipped_login_required"
	TargetSkippedPaid     TargetStatus = "skipped_paid"
	TargetSubmitTimeout   TargetStatus = "submit_timeout"
	TargetSubmitError     TargetStatus = "submit_error"
	TargetDeferred        TargetStatus = "deferred"
)

// NeedsDiscovery reports whether the discover stage should process this
// target on the current pass.
func (s TargetStatus) NeedsDiscovery() bool {
	return s == TargetPending || s == ""
}

// ManualQueue reports whether the target belongs on the human-in-the-loop
// assistant's work list.
func (s TargetStatus) ManualQueue() bool {
	switch s {
	case TargetCaptcha, TargetSkippedLogin, TargetDeferred, TargetFilledNoSubmit:
		return true
	}
	return false
}

// FieldDescriptor describes one input element on a discovered form. Field
// lists are ephemeral: a rediscovery replaces them wholesale because pages
// change between runs.
type FieldDescriptor struct {
	Tag         string `json:"tag"`
	Type        string `json:"type,omitempty"`
	Name        string `json:"name,omitempty"`
	ID          string `json:"id,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Label       string `json:"label,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Selector    string `json:"selector,omitempty"`
}

// DiscoveredForm is one form found on a submission page, with its locator
// and extracted fields.
type DiscoveredForm struct {
	Action   string            `json:"action,omitempty"`
	Method   string            `json:"method,omitempty"`
	ID       string            `json:"id,omitempty"`
	Class    string            `json:"class,omitempty"`
	Selector string            `json:"selector,omitempty"`
	Fields   []FieldDescriptor `json:"fields"`
}

// CopyVariant is one generated title/description pair. Variants are
// immutable once generated; the planner rotates through the pool so
// consecutive directories receive different copy.
type CopyVariant struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SubmitResult captures what actually happened during a fill attempt, for
// the operator's audit trail.
type SubmitResult struct {
	Filled           int    `json:"filled"`
	Skipped          int    `json:"skipped"`
	SubmitButtonText string `json:"submit_button_text,omitempty"`
	LandingURL       string `json:"landing_url,omitempty"`
	Error            string `json:"error,omitempty"`
}

// SubmissionTarget is the work item representing one directory's pending or
// completed submission attempt.
type SubmissionTarget struct {
	DirectoryName string           `json:"directory_name"`
	SubmissionURL string           `json:"submission_url"`
	Status        TargetStatus     `json:"status"`
	Copy          CopyVariant      `json:"copy"`
	FormPath      string           `json:"form_path,omitempty"`
	Forms         []DiscoveredForm `json:"discovered_fields,omitempty"`
	SubmitResult  *SubmitResult    `json:"submit_result,omitempty"`
}

// PrincipalForm picks the form the submission engine should work:
// the one with the most fillable fields, or nil if no form carries any.
func (t *SubmissionTarget) PrincipalForm() *DiscoveredForm {
	var best *DiscoveredForm
	bestCount := 0
	for i := range t.Forms {
		n := 0
		for _, f := range t.Forms[i].Fields {
			if f.Fillable() {
				n++
			}
		}
		if n > bestCount {
			best = &t.Forms[i]
			bestCount = n
		}
	}
	return best
}

// Fillable reports whether the field is the kind of control a headless fill
// can meaningfully populate.
func (f FieldDescriptor) Fillable() bool {
	switch f.Type {
	case "hidden", "submit", "checkbox", "radio", "image", "search", "button":
		return false
	}
	return true
}

// Build constructs the submission plan from the catalog: one target per
// submission-candidate record, each assigned a copy variant by
// deterministic round robin (the k-th target gets variant k mod N).
// Existing targets are carried over untouched so the plan stays additive
// and crash-resumable; only genuinely new directories get fresh entries.
func Build(records []catalog.DirectoryRecord, existing []SubmissionTarget, copies []CopyVariant) ([]SubmissionTarget, error) {
	if len(copies) == 0 {
		return nil, fmt.Errorf("copy variant pool is empty")
	}

	known := make(map[string]bool, len(existing))
	for _, t := range existing {
		known[t.DirectoryName] = true
	}

	out := append([]SubmissionTarget(nil), existing...)
	k := len(existing)
	for _, r := range records {
		if !r.SubmissionCandidate() || known[r.Name] {
			continue
		}
		out = append(out, SubmissionTarget{
			DirectoryName: r.Name,
			SubmissionURL: r.ProbeURL(),
			Status:        TargetPending,
			Copy:          copies[k%len(copies)],
		})
		k++
	}
	return out, nil
}

// CountByStatus aggregates targets for the per-stage completion summary.
func CountByStatus(targets []SubmissionTarget) map[TargetStatus]int {
	counts := make(map[TargetStatus]int)
	for _, t := range targets {
		s := t.Status
		if s == "" {
			s = TargetPending
		}
		counts[s]++
	}
	return counts
}
