package pipeline

import "strings"

// KeyDelimiter separates the site scope from the forecast entity scope.
// Scope values must not contain it; decomposition splits on the first occurrence.
const KeyDelimiter = "::"

// EntityKey identifies one forecast series: a site and a forecast entity.
type EntityKey struct {
	Site  string
	Scope string
}

// Compose returns the serialized composite key "{site}::{scope}".
func Compose(site, scope string) string {
	return site + KeyDelimiter + scope
}

// String returns the serialized form of k.
func (k EntityKey) String() string {
	return Compose(k.Site, k.Scope)
}

// Decompose splits key on the first "::". A key without the delimiter fails
// with a *MalformedKeyError.
func Decompose(key string) (EntityKey, error) {
	site, scope, ok := strings.Cut(key, KeyDelimiter)
	if !ok {
		return EntityKey{}, &MalformedKeyError{Key: key}
	}
	return EntityKey{Site: site, Scope: scope}, nil
}

// ScopeOf returns the forecast entity scope of a composite key.
func ScopeOf(key string) (string, error) {
	k, err := Decompose(key)
	if err != nil {
		return "", err
	}
	return k.Scope, nil
}
