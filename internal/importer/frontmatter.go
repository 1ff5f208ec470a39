package importer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
)

// FrontMatter is the metadata block an imported file may start with.
type FrontMatter struct {
	Title  string
	Slug   string
	Author string
	Custom map[string]any
}

// ParseFrontMatter splits source into its metadata and Markdown body. Files
// without a front matter block return an empty FrontMatter and the source as
// body.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	custom := meta.Custom
	if custom == nil {
		custom = map[string]any{}
	}
	return FrontMatter{
		Title:  strings.TrimSpace(meta.Title),
		Slug:   strings.TrimSpace(meta.Slug),
		Author: strings.TrimSpace(meta.Author),
		Custom: custom,
	}, body, nil
}

type frontMatterEnvelope struct {
	Title  string         `yaml:"title"`
	Slug   string         `yaml:"slug"`
	Author string         `yaml:"author"`
	Custom map[string]any `yaml:",inline"`
}
