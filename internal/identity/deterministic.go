// Package identity derives stable row ids so that the same page always gets
// the same primary key, whichever process creates it first.
package identity

import (
	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"

	"github.com/goliatone/go-wiki/slug"
)

// UUID derives a deterministic UUID from key. The key is hashed as is: slugs
// are case sensitive, so no normalization is applied.
func UUID(key string) uuid.UUID {
	if key == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(key, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(false))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
	}
	return uid
}

// PageUUID is the id of the page at s inside universe. Edge separators of s
// are ignored, matching slug equality.
func PageUUID(universe uuid.UUID, s slug.Slug) uuid.UUID {
	return UUID("go-wiki:page:" + universe.String() + ":" + s.String())
}
