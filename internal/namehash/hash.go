// Package namehash computes the name hash used by lh subkey-list entries
// and by this library's own sub-key lookup acceleration. Value lookup does
// not use it.
package namehash

import "unicode"

const multiplier = 37

// Hash computes the registry name hash over a decoded name: hash = 0, then
// for each codepoint hash = hash*37 + toupper(codepoint), wrapping on
// uint32 overflow. It is always an accelerator alongside the full name
// comparison, never a substitute for it — collisions are expected and
// tolerated.
func Hash(name string) uint32 {
	var hash uint32
	for _, r := range name {
		hash = hash*multiplier + uint32(unicode.ToUpper(r))
	}
	return hash
}
