package thread

import "errors"

// ErrMalformedPayload matches every *MalformedPayloadError via errors.Is
var ErrMalformedPayload = errors.New("malformed payload")

// Reasons reported by Normalize when a required anchor is missing
const (
	ReasonInvalidStructure  = "Invalid response structure"
	ReasonMainTweetMissing  = "Main tweet not found"
	ReasonMainResultMissing = "Main tweet result not found"
	ReasonMainAuthorMissing = "Main tweet author not found"
)

// MalformedPayloadError reports which structural anchor was absent.
// Retrying with the same payload cannot succeed.
type MalformedPayloadError struct {
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return "malformed payload: " + e.Reason
}

// Is lets errors.Is(err, ErrMalformedPayload) match
func (e *MalformedPayloadError) Is(target error) bool {
	return target == ErrMalformedPayload
}

func malformed(reason string) error {
	return &MalformedPayloadError{Reason: reason}
}
