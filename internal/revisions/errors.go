package revisions

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

var (
	ErrPageNotFound       = errors.New("revisions: page not found")
	ErrChangeNotFound     = errors.New("revisions: change not found")
	ErrPageAlreadyChanged = errors.New("revisions: page already changed")
	ErrDiffFailed         = errors.New("revisions: diff does not reproduce the edited content")
	ErrSlugRequired       = errors.New("revisions: slug is required")
	ErrStoreRequired      = errors.New("revisions: store is required")
	ErrInvalidUTF8        = errors.New("revisions: content is not valid UTF-8")
)

const (
	TextCodePageAlreadyChanged = "PAGE_ALREADY_CHANGED"
	TextCodeDiffFailed         = "DIFF_FAILED"
	TextCodeInvalidContent     = "INVALID_CONTENT"
)

// PageNotFoundError reports a read of a page that has never been saved.
type PageNotFoundError struct {
	Universe uuid.UUID
	Slug     string
}

func (e *PageNotFoundError) Error() string {
	if e == nil || e.Slug == "" {
		return ErrPageNotFound.Error()
	}
	return fmt.Sprintf("%s: %s", ErrPageNotFound.Error(), e.Slug)
}

func (e *PageNotFoundError) Unwrap() error {
	return ErrPageNotFound
}

// ChangeNotFoundError reports an unknown change hash.
type ChangeNotFoundError struct {
	Hash string
}

func (e *ChangeNotFoundError) Error() string {
	if e == nil || e.Hash == "" {
		return ErrChangeNotFound.Error()
	}
	return fmt.Sprintf("%s: %s", ErrChangeNotFound.Error(), e.Hash)
}

func (e *ChangeNotFoundError) Unwrap() error {
	return ErrChangeNotFound
}

func conflictError() error {
	return goerrors.Wrap(ErrPageAlreadyChanged, goerrors.CategoryConflict, "page was changed after the edit began").
		WithTextCode(TextCodePageAlreadyChanged)
}

func diffError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, "diff verification failed").
		WithTextCode(TextCodeDiffFailed)
}

func invalidContentError() error {
	return goerrors.Wrap(ErrInvalidUTF8, goerrors.CategoryValidation, "page content must be valid UTF-8").
		WithTextCode(TextCodeInvalidContent)
}
