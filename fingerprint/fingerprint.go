// Package fingerprint computes the (result-type, hash) pair used as the
// cache and inflight key for a single logical request.
//
// The hash function follows the same choice O-tero's consistent-hash ring
// makes in pkg/utils/hash.go: FNV-1a, fast and good-enough distribution for
// untrusted-free internal keys. Collisions across different result types
// are impossible because the type half of the pair is mixed in separately;
// collisions within one result type are merely unlikely, not impossible,
// which the spec accepts since ids here are small and not adversarial.
package fingerprint

import (
	"fmt"
	"hash/fnv"
	"reflect"
)

// Key identifies a single logical request: which result type it targets,
// and a 64-bit hash combining id, language, and auth-identifier.
type Key struct {
	Type reflect.Type
	Hash uint64
}

// For computes the fingerprint for a request of result type T with the
// given id, optional language code, and optional auth identifier. Pass an
// empty string for id on fixed (no-id) endpoints. lang and authID are
// mixed in exactly as given; leaving them out for endpoints that aren't
// locale-sensitive or authenticated is up to the caller, and the
// coordinator passes the client's language and identifier for every
// endpoint.
func For[T any](id fmt.Stringer, lang, authID string) Key {
	var idStr string
	if id != nil {
		idStr = id.String()
	}
	return ForStrings[T](idStr, lang, authID)
}

// ForStrings is the string-keyed variant of For, used directly when the id
// is already a string (or the endpoint has no id at all).
func ForStrings[T any](id, lang, authID string) Key {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	idHash := h.Sum64()

	h.Reset()
	_, _ = h.Write([]byte(lang))
	langHash := h.Sum64()

	h.Reset()
	_, _ = h.Write([]byte(authID))
	authHash := h.Sum64()

	return Key{
		Type: reflect.TypeOf((*T)(nil)).Elem(),
		Hash: idHash ^ langHash ^ authHash,
	}
}

// ForAll builds the special fingerprint used for "fetch all items of T"
// results cached as a whole (spec §4.7.6's ids=all key), distinguished
// from the per-item id fingerprint by result type alone: here T is
// instantiated with the slice type (e.g. fingerprint.ForStrings[[]Item]).
func ForAll[T any](lang, authID string) Key {
	return ForStrings[T]("ids=all", lang, authID)
}
