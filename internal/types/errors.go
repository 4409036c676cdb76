package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrUnknownSource = errors.New("unknown trade source")
	ErrEmptyDocument = errors.New("rendered document is empty")
)

// FetchKind distinguishes the two ways a page render can time out.
type FetchKind string

const (
	// FetchNavigation means navigation itself failed or exceeded its budget:
	// the origin is unreachable or too slow.
	FetchNavigation FetchKind = "navigation"

	// FetchSelector means the page loaded but the required content selector
	// never appeared, usually layout drift or a page with no rows.
	FetchSelector FetchKind = "selector"
)

// FetchError wraps errors that occur while rendering a page.
type FetchError struct {
	URL  string
	Kind FetchKind
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s timeout for %s (page %d): %v", e.Kind, e.URL, e.Page, e.Err)
	}
	return fmt.Sprintf("%s timeout for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsNavigationTimeout reports whether err is a navigation-phase fetch failure.
func IsNavigationTimeout(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == FetchNavigation
}

// IsSelectorTimeout reports whether err is a selector-wait fetch failure.
func IsSelectorTimeout(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == FetchSelector
}

// ExtractError wraps errors raised while parsing a single row. These are
// always recovered by dropping the row, never by aborting the page.
type ExtractError struct {
	Source Source
	Row    int
	Err    error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract error (%s, row %d): %v", e.Source, e.Row, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur while archiving a scrape result.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
