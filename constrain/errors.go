package constrain

import (
	"fmt"

	"github.com/npillmayer/gorgo/constrain/vocab"
)

// RejectedTokenError reports that a token's bytes (or, for a separator
// token, the token itself) would not keep the grammar valid. Cause, if
// non-nil, is the underlying *earley.RejectedError.
type RejectedTokenError struct {
	Token vocab.TokenID
	Cause error
}

func (e *RejectedTokenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("constrain: token %d rejected: %v", e.Token, e.Cause)
	}
	return fmt.Sprintf("constrain: token %d rejected: grammar has not reached a complete derivation", e.Token)
}

func (e *RejectedTokenError) Unwrap() error { return e.Cause }

// AlreadyFinishedError reports that the Engine has already accepted a
// separator token, after which no token is accepted, or that a
// non-separator token was offered after its recognizer reached a dead end
// (a separator is still accepted then, if the grammar is Accepting).
type AlreadyFinishedError struct{}

func (e *AlreadyFinishedError) Error() string {
	return "constrain: engine already finished, cannot accept further tokens"
}
