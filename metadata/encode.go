package metadata

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/hexpm/hexgo/internal/maps"
)

// Encode serializes a metadata mapping to the metadata.config text form:
// one {key, value} term per top-level entry, each terminated by ".\n",
// with keys in sorted order. The output is byte-reproducible for equal
// input.
func Encode(meta map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	for _, key := range maps.Keys(meta) {
		buf.WriteByte('{')
		writeBinary(&buf, key)
		buf.WriteByte(',')
		if err := writeTerm(&buf, meta[key]); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", key, err)
		}
		buf.WriteString("}.\n")
	}
	return buf.Bytes(), nil
}

// writeTerm renders a single value. Strings become binaries, mappings
// become sorted lists of {key, value} tuples, atom-like values other than
// booleans and undefined become binaries as well.
func writeTerm(buf *bytes.Buffer, v any) error {
	switch v := v.(type) {
	case nil:
		buf.WriteString(string(Undefined))
	case bool:
		buf.WriteString(strconv.FormatBool(v))
	case Atom:
		switch v {
		case "true", "false", Undefined:
			buf.WriteString(string(v))
		default:
			writeBinary(buf, string(v))
		}
	case string:
		writeBinary(buf, v)
	case int:
		buf.WriteString(strconv.Itoa(v))
	case int64:
		buf.WriteString(strconv.FormatInt(v, 10))
	case float64:
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	case []any:
		buf.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeTerm(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Pair:
		buf.WriteByte('{')
		if err := writeTerm(buf, v.Key); err != nil {
			return err
		}
		buf.WriteByte(',')
		if err := writeTerm(buf, v.Value); err != nil {
			return err
		}
		buf.WriteByte('}')
	case map[string]any:
		buf.WriteByte('[')
		for i, key := range maps.Keys(v) {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('{')
			writeBinary(buf, key)
			buf.WriteByte(',')
			if err := writeTerm(buf, v[key]); err != nil {
				return err
			}
			buf.WriteByte('}')
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unsupported value of type %T", v)
	}
	return nil
}

// writeBinary renders a string as a binary literal, escaping quotes,
// backslashes and control characters.
func writeBinary(buf *bytes.Buffer, s string) {
	buf.WriteString(`<<"`)
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\x{%X}`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteString(`">>`)
}
