package pagescmd

import (
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-wiki/internal/importer"
	"github.com/goliatone/go-wiki/internal/revisions"
	"github.com/goliatone/go-wiki/slug"
)

const (
	editPageMessageType    = "wiki.pages.edit"
	importPagesMessageType = "wiki.pages.import"
)

// EditPageCommand submits new source for a page. Token is the latest change
// hash the author saw, empty for a page that does not exist yet.
type EditPageCommand struct {
	Universe uuid.UUID `json:"universe"`
	Slug     string    `json:"slug"`
	Author   string    `json:"author"`
	Content  string    `json:"content"`
	Token    string    `json:"token,omitempty"`

	// Result receives the applied edit when non-nil.
	Result *revisions.EditResult `json:"-"`
}

// Type implements command.Message.
func (EditPageCommand) Type() string { return editPageMessageType }

// Validate checks the slug, author and content encoding before the engine is
// reached.
func (m EditPageCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Slug, validation.Required, validation.By(validSlug("wiki.pages.edit.slug_invalid"))),
		validation.Field(&m.Author, validation.Required, validation.Length(1, 255)),
		validation.Field(&m.Content, validation.By(func(value any) error {
			if raw, _ := value.(string); !utf8.ValidString(raw) {
				return validation.NewError("wiki.pages.edit.content_invalid_utf8", "content must be valid UTF-8")
			}
			return nil
		})),
	)
}

// ImportPagesCommand imports a directory of Markdown files.
type ImportPagesCommand struct {
	Universe  uuid.UUID `json:"universe"`
	Directory string    `json:"directory"`
	Author    string    `json:"author,omitempty"`
	Pattern   string    `json:"pattern,omitempty"`
	Recursive bool      `json:"recursive,omitempty"`
	DryRun    bool      `json:"dry_run,omitempty"`

	// Result receives the import summary when non-nil.
	Result *importer.Result `json:"-"`
}

// Type implements command.Message.
func (ImportPagesCommand) Type() string { return importPagesMessageType }

// Validate ensures directory input is present before handlers execute.
func (m ImportPagesCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Directory, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("wiki.pages.import.directory_required", "directory is required")
			}
			return nil
		})),
		validation.Field(&m.Author, validation.Length(0, 255)),
	)
}

func validSlug(code string) validation.RuleFunc {
	return func(value any) error {
		raw, _ := value.(string)
		if raw == "" {
			return nil
		}
		if _, err := slug.New(raw); err != nil {
			return validation.NewError(code, err.Error())
		}
		return nil
	}
}
