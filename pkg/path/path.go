// Package path models locations inside a state tree as ordered segment
// sequences. Paths are derived from selectors built with the Builder DSL, from
// dotted strings ("a.b.0") or from JSON pointers ("/a/b/0"); equivalent inputs
// always produce Equal paths.
package path

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Separator joins segments in the dotted form.
const Separator = "."

var (
	// ErrEmptySegment indicates a dotted path with an empty segment ("a..b").
	ErrEmptySegment = errors.New("path: empty segment")
	// ErrInvalidPointer indicates a malformed JSON pointer.
	ErrInvalidPointer = errors.New("path: invalid json pointer")
)

// Segment is a single step in a Path: either an object key or a sequence index.
type Segment struct {
	key     string
	index   int
	isIndex bool
}

// Key builds a key segment.
func Key(name string) Segment {
	return Segment{key: name}
}

// Index builds an index segment. Negative values are clamped to zero.
func Index(i int) Segment {
	if i < 0 {
		i = 0
	}
	return Segment{index: i, isIndex: true}
}

// IsIndex reports whether the segment addresses a sequence position.
func (s Segment) IsIndex() bool {
	return s.isIndex
}

// Name returns the key of a key segment, or the decimal form of an index.
func (s Segment) Name() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.key
}

// Position returns the index addressed by the segment. Key segments made only
// of digits also report a position so they can address sequences.
func (s Segment) Position() (int, bool) {
	if s.isIndex {
		return s.index, true
	}
	return parseIndex(s.key)
}

// String implements fmt.Stringer.
func (s Segment) String() string {
	return s.Name()
}

// Path is an immutable ordered sequence of segments. The zero value addresses
// the root.
type Path struct {
	segments []Segment
}

// New builds a path from segments.
func New(segments ...Segment) Path {
	if len(segments) == 0 {
		return Path{}
	}
	return Path{segments: append([]Segment(nil), segments...)}
}

// Of builds a path from raw tokens: ints become index segments, strings become
// key segments (digit-only strings are parsed as indices to match Parse).
// Segments are accepted as-is; other values use their fmt representation.
func Of(tokens ...any) Path {
	segments := make([]Segment, 0, len(tokens))
	for _, token := range tokens {
		switch typed := token.(type) {
		case Segment:
			segments = append(segments, typed)
		case int:
			segments = append(segments, Index(typed))
		case string:
			segments = append(segments, segmentFromToken(typed))
		default:
			segments = append(segments, segmentFromToken(fmt.Sprint(typed)))
		}
	}
	return Path{segments: segments}
}

// Parse splits a dotted string into a Path. Digit-only segments address
// sequence indices. The empty string yields the root path.
func Parse(dotted string) (Path, error) {
	if dotted == "" {
		return Path{}, nil
	}
	tokens := strings.Split(dotted, Separator)
	segments := make([]Segment, 0, len(tokens))
	for i, token := range tokens {
		if token == "" {
			return Path{}, fmt.Errorf("%w at position %d in %q", ErrEmptySegment, i, dotted)
		}
		segments = append(segments, segmentFromToken(token))
	}
	return Path{segments: segments}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(dotted string) Path {
	p, err := Parse(dotted)
	if err != nil {
		panic(err)
	}
	return p
}

// FromPointer converts an RFC 6901 JSON pointer into a Path.
func FromPointer(pointer string) (Path, error) {
	if pointer == "" || pointer == "#" {
		return Path{}, nil
	}
	pointer = strings.TrimPrefix(pointer, "#")
	if !strings.HasPrefix(pointer, "/") {
		return Path{}, fmt.Errorf("%w: %q", ErrInvalidPointer, pointer)
	}
	tokens := strings.Split(pointer[1:], "/")
	segments := make([]Segment, 0, len(tokens))
	for _, token := range tokens {
		token = strings.ReplaceAll(token, "~1", "/")
		token = strings.ReplaceAll(token, "~0", "~")
		segments = append(segments, segmentFromToken(token))
	}
	return Path{segments: segments}, nil
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segments)
}

// IsRoot reports whether p addresses the root.
func (p Path) IsRoot() bool {
	return len(p.segments) == 0
}

// Segments returns a copy of the segments.
func (p Path) Segments() []Segment {
	if len(p.segments) == 0 {
		return nil
	}
	return append([]Segment(nil), p.segments...)
}

// At returns the segment at position i.
func (p Path) At(i int) Segment {
	return p.segments[i]
}

// Head returns the first segment and the remaining path.
func (p Path) Head() (Segment, Path, bool) {
	if len(p.segments) == 0 {
		return Segment{}, Path{}, false
	}
	return p.segments[0], Path{segments: p.segments[1:]}, true
}

// Last returns the final segment.
func (p Path) Last() (Segment, bool) {
	if len(p.segments) == 0 {
		return Segment{}, false
	}
	return p.segments[len(p.segments)-1], true
}

// Parent returns p without its final segment. The root is its own parent.
func (p Path) Parent() Path {
	if len(p.segments) <= 1 {
		return Path{}
	}
	return Path{segments: p.segments[:len(p.segments)-1]}
}

// Append returns a new path with segments added after p.
func (p Path) Append(segments ...Segment) Path {
	out := make([]Segment, 0, len(p.segments)+len(segments))
	out = append(out, p.segments...)
	out = append(out, segments...)
	return Path{segments: out}
}

// Concat returns p followed by other.
func (p Path) Concat(other Path) Path {
	return p.Append(other.segments...)
}

// Key returns a new path with a key segment appended.
func (p Path) Key(name string) Path {
	return p.Append(Key(name))
}

// Index returns a new path with an index segment appended.
func (p Path) Index(i int) Path {
	return p.Append(Index(i))
}

// Equal reports whether both paths address the same location. A digit key
// equals the index it spells: Key("0") and Index(0) match.
func (p Path) Equal(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i := range p.segments {
		if !segmentsEqual(p.segments[i], other.segments[i]) {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix addresses p or one of its ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	for i := range prefix.segments {
		if !segmentsEqual(p.segments[i], prefix.segments[i]) {
			return false
		}
	}
	return true
}

// String joins the segments with Separator. Keys containing the separator do
// not survive a Parse round trip.
func (p Path) String() string {
	if len(p.segments) == 0 {
		return ""
	}
	parts := make([]string, len(p.segments))
	for i, segment := range p.segments {
		parts[i] = segment.Name()
	}
	return strings.Join(parts, Separator)
}

// Pointer renders p as an RFC 6901 JSON pointer.
func (p Path) Pointer() string {
	if len(p.segments) == 0 {
		return ""
	}
	var b strings.Builder
	for _, segment := range p.segments {
		b.WriteByte('/')
		name := strings.ReplaceAll(segment.Name(), "~", "~0")
		b.WriteString(strings.ReplaceAll(name, "/", "~1"))
	}
	return b.String()
}

// Strings returns the segment names.
func (p Path) Strings() []string {
	out := make([]string, len(p.segments))
	for i, segment := range p.segments {
		out[i] = segment.Name()
	}
	return out
}

// MarshalText encodes the dotted form.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes the dotted form.
func (p *Path) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// segmentsEqual compares by name, so a digit key and the index it spells
// address the same location, as they do when reading a map.
func segmentsEqual(a, b Segment) bool {
	if a.isIndex && b.isIndex {
		return a.index == b.index
	}
	return a.Name() == b.Name()
}

func segmentFromToken(token string) Segment {
	if i, ok := parseIndex(token); ok {
		return Index(i)
	}
	return Key(token)
}

func parseIndex(token string) (int, bool) {
	if token == "" {
		return 0, false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	if len(token) > 1 && token[0] == '0' {
		return 0, false
	}
	i, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return i, true
}
