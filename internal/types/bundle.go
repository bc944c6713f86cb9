package types

import "encoding/json"

type (
	Bundle struct {
		ID      int     `json:"id"   validate:"required"`
		URL     string  `json:"url"`
		WebURL  string  `json:"web_url"`
		Project Project `json:"project"`
		Name    string  `json:"name" validate:"required"`
		Owner   User    `json:"owner"`
		Public  bool    `json:"public"`
		MboxURL string  `json:"mbox"`
		// Patches is owner-curated order. There is no versioning and no
		// completeness tracking on bundles.
		Patches []PatchRef `json:"patches"`

		Raw json.RawMessage `json:"-"`
	}

	// BundleUpdate is a partial mutation of a bundle. Only defined fields
	// are sent. Patches, when defined, replaces the membership outright.
	BundleUpdate struct {
		Name    Optional[string] `json:"name,omitempty"`
		Public  Optional[bool]   `json:"public,omitempty"`
		Patches Optional[[]int]  `json:"patches,omitempty"`
	}
)

func (b *Bundle) UnmarshalJSON(data []byte) error {
	type alias Bundle
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*b = Bundle(decoded)
	b.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// PatchIDs flattens the membership for mutation calls.
func (b *Bundle) PatchIDs() []int {
	ids := make([]int, 0, len(b.Patches))
	for _, ref := range b.Patches {
		ids = append(ids, ref.ID)
	}

	return ids
}
