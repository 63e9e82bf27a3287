package notify

import (
	"errors"
	"strconv"
	"strings"
)

// Callback keys for the administrator's review affordances. Registered by
// the bot layer and attached to buttons built here, so both sides agree on
// the wire format.
const (
	CallbackApprove  = "approve_reg"
	CallbackReject   = "reject_reg"
	CallbackFinalize = "finalize_reg"
)

// ErrBadCorrelation reports a callback payload that does not decode into a
// correlation pair.
var ErrBadCorrelation = errors.New("notify: malformed correlation payload")

// Correlation ties an admin action to its target actor and, optionally, the
// payment attempt under review. It is serialized only at this transport
// boundary; the workflow engine never sees the encoded form.
type Correlation struct {
	Target  int64
	Attempt int64 // zero when the action concerns the user record only
}

// Encode renders the correlation as the callback payload "target|attempt".
func (c Correlation) Encode() string {
	return strconv.FormatInt(c.Target, 10) + "|" + strconv.FormatInt(c.Attempt, 10)
}

// ParseCorrelation decodes a callback payload produced by Encode.
func ParseCorrelation(payload string) (Correlation, error) {
	parts := strings.SplitN(payload, "|", 2)
	if len(parts) != 2 {
		return Correlation{}, ErrBadCorrelation
	}
	target, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil || target == 0 {
		return Correlation{}, ErrBadCorrelation
	}
	attempt, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil || attempt < 0 {
		return Correlation{}, ErrBadCorrelation
	}
	return Correlation{Target: target, Attempt: attempt}, nil
}

// AttemptID returns the attempt as a nullable id for workflow calls.
func (c Correlation) AttemptID() *int64 {
	if c.Attempt == 0 {
		return nil
	}
	id := c.Attempt
	return &id
}
