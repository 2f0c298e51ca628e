package cache

import "fmt"

// Key builders for every cache entry the gateway owns. Keeping them here
// makes key layout discoverable and keeps handlers from inventing formats.

// IdentityTokenKey is the identity entry for a verified bearer token. The
// token itself never appears in the key; callers pass its digest.
func IdentityTokenKey(tokenDigest string) string {
	return "auth:token:" + tokenDigest
}

// SubjectIndexKey is the set of IdentityTokenKey entries belonging to a
// subject, maintained alongside each identity write so invalidation can
// enumerate and delete exactly.
func SubjectIndexKey(subjectID string) string {
	return "auth:subject:" + subjectID + ":tokens"
}

// UserKey is the subject-keyed profile entry
func UserKey(subjectID string) string {
	return "user:" + subjectID
}

// RateWindowKey is the fixed-window counter for a client and route bucket.
// The window start is embedded, so a key is never reused across windows and
// self-expires with the window's TTL.
func RateWindowKey(clientKey, bucket string, windowStart int64) string {
	return fmt.Sprintf("rate:%s:%s:%d", clientKey, bucket, windowStart)
}
