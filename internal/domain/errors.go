package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAuthentication means the repository rejected our login. It is fatal for
// the whole run and must be raised before any submission is touched.
var ErrAuthentication = errors.New("repository authentication rejected")

// ErrTransport marks an unreachable collaborator (repository, chat, email).
// The affected step is skipped and the run continues.
var ErrTransport = errors.New("transport failure")

// UnresolvedIdentityError reports that no candidate handle for a name could
// be verified. For supervisors the orchestrator treats it as fatal for that
// submission's supervisor step; author-side resolution never raises it.
type UnresolvedIdentityError struct {
	RawName string
	Tried   []string
}

func (e *UnresolvedIdentityError) Error() string {
	return fmt.Sprintf("no valid chat handle found for %q (tried: %s)",
		e.RawName, strings.Join(e.Tried, ", "))
}

// MalformedRecordError reports a repository record missing required metadata.
// The submission is skipped and the batch continues.
type MalformedRecordError struct {
	Field string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("submission record missing %s", e.Field)
}
