package scenario

import (
	"crypto/sha256"
	"encoding/hex"
)

// Revision returns a digest of the sections, embedded in edit forms to
// detect submits built on an outdated version of the record.
func Revision(sections Sections) string {
	b, err := sections.MarshalJSON()
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
