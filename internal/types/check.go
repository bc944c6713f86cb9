package types

import "fmt"

// CheckState is the aggregate CI verdict vocabulary.
type CheckState string

const (
	CheckStatePending CheckState = "pending" // No conclusive result reported yet
	CheckStateSuccess CheckState = "success" // All reporting contexts passed
	CheckStateWarning CheckState = "warning" // Passed with caveats
	CheckStateFail    CheckState = "fail"    // At least one context failed
)

type Check struct {
	ID          int        `json:"id"    validate:"required"`
	URL         string     `json:"url"`
	Date        EventTime  `json:"date"`
	User        User       `json:"user"`
	State       CheckState `json:"state" validate:"required"`
	TargetURL   string     `json:"target_url"`
	Context     string     `json:"context"`
	Description string     `json:"description"`
}

func CheckStateFromString(s string) (*CheckState, error) {
	var c CheckState

	switch s {
	case string(CheckStatePending):
		c = CheckStatePending
	case string(CheckStateSuccess):
		c = CheckStateSuccess
	case string(CheckStateWarning):
		c = CheckStateWarning
	case string(CheckStateFail):
		c = CheckStateFail
	default:
		return nil, fmt.Errorf("%s is not a valid check state", s)
	}

	return &c, nil
}
