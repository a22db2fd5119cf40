package linkservice

import "fmt"

// Kind classifies an error into the four buckets spec.md §7 names, so
// transport layers (toolapi, linkctl) can map them to the right status
// code or exit code without string-matching messages.
type Kind int

const (
	// KindInvalidInput covers malformed arguments: a path that doesn't
	// start with "/" or end in ".md", an unknown target folder, a missing
	// required argument.
	KindInvalidInput Kind = iota
	// KindNotFound covers a file_path that doesn't resolve, a source UUID
	// absent from its folder, or a target folder document not loaded.
	KindNotFound
	// KindConflict covers a target path that already exists.
	KindConflict
	// KindInternal covers transactional API failures or malformed
	// origin-tagged values. These should not occur in a well-behaved
	// system.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the error type every exported linkservice operation returns on
// failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func invalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func internal(format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is a linkservice not-found error,
// mirroring the teacher's delegating IsNotFound convention.
func IsNotFound(err error) bool {
	var svcErr *Error
	if e, ok := err.(*Error); ok {
		svcErr = e
	}
	return svcErr != nil && svcErr.Kind == KindNotFound
}
