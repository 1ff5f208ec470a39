package revisions

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Page is the current source of one page in one universe.
type Page struct {
	bun.BaseModel `bun:"table:pages,alias:p"`

	ID         uuid.UUID `bun:",pk,type:uuid" json:"id"`
	UniverseID uuid.UUID `bun:"universe_id,notnull,type:uuid,unique:pages_universe_slug" json:"universe_id"`
	Slug       string    `bun:"slug,notnull,unique:pages_universe_slug" json:"slug"`
	Content    string    `bun:"content,notnull" json:"content"`
	InsertedAt time.Time `bun:"inserted_at,nullzero,notnull,default:current_timestamp" json:"inserted_at"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	// Populated from the change log on reads.
	LatestChangeHash string `bun:"-" json:"latest_change_hash,omitempty"`
	LatestSeq        int    `bun:"-" json:"latest_seq,omitempty"`
}

// Change is one entry of a page's append-only diff log.
type Change struct {
	bun.BaseModel `bun:"table:changes,alias:c"`

	ID         uuid.UUID `bun:",pk,type:uuid" json:"id"`
	PageID     uuid.UUID `bun:"page_id,notnull,type:uuid,unique:changes_page_seq" json:"page_id"`
	Seq        int       `bun:"seq,notnull,unique:changes_page_seq" json:"seq"`
	Author     string    `bun:"author,notnull" json:"author"`
	Hash       string    `bun:"hash,notnull" json:"hash"`
	Diff       string    `bun:"diff,notnull" json:"diff"`
	InsertedAt time.Time `bun:"inserted_at,notnull" json:"inserted_at"`
}

// Link is an edge of the page graph. The destination need not exist.
type Link struct {
	bun.BaseModel `bun:"table:links,alias:l"`

	UniverseID uuid.UUID `bun:"universe_id,pk,type:uuid" json:"universe_id"`
	SourceSlug string    `bun:"source_slug,pk" json:"source_slug"`
	DestSlug   string    `bun:"dest_slug,pk" json:"dest_slug"`
}
