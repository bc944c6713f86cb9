package types

import "encoding/json"

type (
	// Person is the sender identity attached to submissions.
	Person struct {
		ID    int    `json:"id"    validate:"required"`
		URL   string `json:"url"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	// User is a registered account. Delegates and bundle owners are users.
	User struct {
		ID        int    `json:"id"       validate:"required"`
		URL       string `json:"url"`
		Username  string `json:"username" validate:"required"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	}

	Project struct {
		ID       int    `json:"id"        validate:"required"`
		URL      string `json:"url"`
		Name     string `json:"name"`
		LinkName string `json:"link_name" validate:"required"`
		ListID   string `json:"list_id"`
		WebURL   string `json:"web_url"`
		SCMURL   string `json:"scm_url"`
	}

	// SeriesRef is the abbreviated series record embedded in patches.
	SeriesRef struct {
		ID      int       `json:"id"      validate:"required"`
		URL     string    `json:"url"`
		WebURL  string    `json:"web_url"`
		Date    EventTime `json:"date"`
		Name    string    `json:"name"`
		Version int       `json:"version"`
		MboxURL string    `json:"mbox"`
	}

	// PatchRef is the abbreviated patch record embedded in series and
	// bundles. Ref order on those records is application order.
	PatchRef struct {
		ID      int       `json:"id"      validate:"required"`
		URL     string    `json:"url"`
		WebURL  string    `json:"web_url"`
		MsgID   string    `json:"msgid"`
		Date    EventTime `json:"date"`
		Name    string    `json:"name"`
		MboxURL string    `json:"mbox"`
	}

	// SubmissionRef points at a non-patch submission, such as a series
	// cover letter.
	SubmissionRef struct {
		ID      int       `json:"id"    validate:"required"`
		URL     string    `json:"url"`
		WebURL  string    `json:"web_url"`
		MsgID   string    `json:"msgid"`
		Date    EventTime `json:"date"`
		Name    string    `json:"name"`
		MboxURL string    `json:"mbox"`
	}

	Patch struct {
		ID        int       `json:"id"         validate:"required"`
		URL       string    `json:"url"`
		WebURL    string    `json:"web_url"`
		Project   Project   `json:"project"`
		MsgID     string    `json:"msgid"`
		Date      EventTime `json:"date"`
		Name      string    `json:"name"       validate:"required"`
		CommitRef string    `json:"commit_ref"`
		// State vocabulary is server configured. Treated as opaque.
		State     string      `json:"state"`
		Archived  bool        `json:"archived"`
		Hash      string      `json:"hash"`
		Submitter Person      `json:"submitter"`
		Delegate  *User       `json:"delegate"`
		MboxURL   string      `json:"mbox"`
		Series    []SeriesRef `json:"series"`
		// Detail views only.
		Diff    string `json:"diff,omitempty"`
		Content string `json:"content,omitempty"`

		// Raw is the undecoded server payload. Fields this client does not
		// model are preserved here, never interpreted.
		Raw json.RawMessage `json:"-"`
	}

	// PatchUpdate is a partial mutation of a patch. Only defined fields are
	// sent.
	PatchUpdate struct {
		State     Optional[string] `json:"state,omitempty"`
		Archived  Optional[bool]   `json:"archived,omitempty"`
		Delegate  Optional[int]    `json:"delegate,omitempty"`
		CommitRef Optional[string] `json:"commit_ref,omitempty"`
	}
)

func (p *Patch) UnmarshalJSON(data []byte) error {
	type alias Patch
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*p = Patch(decoded)
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Ref narrows a full patch to the embedded form used in results.
func (p *Patch) Ref() PatchRef {
	return PatchRef{
		ID:      p.ID,
		URL:     p.URL,
		WebURL:  p.WebURL,
		MsgID:   p.MsgID,
		Date:    p.Date,
		Name:    p.Name,
		MboxURL: p.MboxURL,
	}
}
