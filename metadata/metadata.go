// Package metadata serializes package metadata to the term based
// metadata.config format and parses it back.
//
// Metadata is a mapping with string keys. Values are strings, booleans,
// numbers, lists ([]any), mappings (map[string]any), Atom for bare atomic
// tokens and Pair for decoded 2-tuples.
package metadata

import (
	"errors"
	"fmt"
)

// Atom is a bare atomic token such as undefined. Booleans are represented
// as Go bools, not Atoms.
type Atom string

// Undefined is the atomic token written for values that are explicitly
// unset.
const Undefined = Atom("undefined")

// Pair is a decoded 2-tuple. Sequences of pairs are the wire form of
// mappings and are coerced back by Normalize.
type Pair struct {
	Key   any
	Value any
}

// ErrInvalidTerms happens when the metadata parses but the result is not a
// list of terms.
var ErrInvalidTerms = errors.New("invalid terms")

// ErrNotKeyValue happens when the parsed terms are not {key, value} pairs.
var ErrNotKeyValue = errors.New("not a key-value list")

// SyntaxError is a tokenizer or parser failure with its input position.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}
