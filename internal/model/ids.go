package model

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

const (
	PrefixCourse = "crs"
	PrefixModule = "mod"
	PrefixLesson = "les"
	PrefixBlock  = "blk"
)

// NewID returns prefix-<suffix> where suffix is 10 chars of base32 (lowercase, no padding).
// 10 chars base32 ~= 50 bits of space, plenty for ids scoped to one course.
func NewID(prefix string) (string, error) {
	var b [7]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	suffix := strings.ToLower(enc.EncodeToString(b[:]))
	if len(suffix) > 10 {
		suffix = suffix[:10]
	}
	return prefix + "-" + suffix, nil
}

// HasPrefix reports whether id looks like an id minted with prefix.
func HasPrefix(id, prefix string) bool {
	id = strings.TrimSpace(id)
	return strings.HasPrefix(id, prefix+"-") && len(id) > len(prefix)+1
}
