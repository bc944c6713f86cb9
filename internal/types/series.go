package types

import "encoding/json"

type Series struct {
	ID       int       `json:"id"       validate:"required"`
	URL      string    `json:"url"`
	WebURL   string    `json:"web_url"`
	Project  Project   `json:"project"`
	Date     EventTime `json:"date"`
	Name     string    `json:"name"`
	Version  int       `json:"version"  validate:"required"`
	Total    int       `json:"total"`
	Received int       `json:"received_total"`
	// ReceivedAll is false while the server is missing members. An
	// incomplete series cannot be applied safely.
	ReceivedAll bool           `json:"received_all"`
	Submitter   Person         `json:"submitter"`
	MboxURL     string         `json:"mbox"`
	CoverLetter *SubmissionRef `json:"cover_letter"`
	// Patches is in sender order. Application follows it verbatim.
	Patches []PatchRef `json:"patches"`

	Raw json.RawMessage `json:"-"`
}

func (s *Series) UnmarshalJSON(data []byte) error {
	type alias Series
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*s = Series(decoded)
	s.Raw = append(json.RawMessage(nil), data...)
	return nil
}
