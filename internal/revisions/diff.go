package revisions

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/goliatone/go-wiki/slug"
)

// MakeDiff returns the delta turning before into after. A delta is a
// tab-separated list of rune-counted keep (=N) and delete (-N) runs and
// escaped inserts (+text), so it only applies to the exact text it was made
// from. The delta is applied back to before and rejected with ErrDiffFailed
// unless it yields after exactly. Both texts must be valid UTF-8.
func MakeDiff(before, after string) (string, error) {
	if !utf8.ValidString(before) || !utf8.ValidString(after) {
		return "", ErrInvalidUTF8
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, true)
	delta := dmp.DiffToDelta(diffs)

	applied, err := ApplyDiff(before, delta)
	if err != nil {
		return "", err
	}
	if applied != after {
		return "", ErrDiffFailed
	}
	return delta, nil
}

// ApplyDiff applies a delta produced by MakeDiff to base.
func ApplyDiff(base, delta string) (string, error) {
	if delta == "" {
		if base != "" {
			return "", fmt.Errorf("%w: empty delta for non-empty base", ErrDiffFailed)
		}
		return base, nil
	}
	dmp := diffmatchpatch.New()
	diffs, err := dmp.DiffFromDelta(base, delta)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDiffFailed, err)
	}
	return dmp.DiffText2(diffs), nil
}

// Replay rebuilds page content from its ordered diff log, starting from the
// empty document.
func Replay(diffs []string) (string, error) {
	content := ""
	for i, delta := range diffs {
		next, err := ApplyDiff(content, delta)
		if err != nil {
			return "", fmt.Errorf("revisions: replay change %d: %w", i+1, err)
		}
		content = next
	}
	return content, nil
}

// ReplayChanges is Replay over stored changes, which must be ordered by seq.
func ReplayChanges(changes []*Change) (string, error) {
	diffs := make([]string, 0, len(changes))
	for _, change := range changes {
		if change != nil {
			diffs = append(diffs, change.Diff)
		}
	}
	return Replay(diffs)
}

// ChangeHash identifies a change: the lowercase hex SHA-256 of the slug, the
// author, the unix timestamp in seconds as little-endian int64 and the patch.
func ChangeHash(s slug.Slug, author string, at time.Time, patch string) string {
	h := sha256.New()
	h.Write([]byte(s.String()))
	h.Write([]byte(author))
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], uint64(at.Unix()))
	h.Write(ts[:])
	h.Write([]byte(patch))
	return hex.EncodeToString(h.Sum(nil))
}
