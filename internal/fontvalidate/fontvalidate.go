// Package fontvalidate schema-checks a fontparser Value tree against
// the drum-font schema, accumulating path-contextualized errors and
// normalizing numeric-looking quoted strings into number nodes.
package fontvalidate

import (
	"fmt"
	"math"
	"strconv"

	"github.com/bflamig/dfxplay/internal/fontparser"
	"github.com/bflamig/dfxplay/internal/numlex"
)

// Error is one schema violation, with the dotted path context (e.g.
// "MyKit/snare/v64/r1/peak") it occurred under.
type Error struct {
	Path string
	Row  int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("fontvalidate: %s: %s (%d:%d)", e.Path, e.Msg, e.Row, e.Col)
}

// Log accumulates validation errors in path order.
type Log struct {
	Errors []*Error
}

func (l *Log) add(path string, v *fontparser.Value, format string, args ...any) {
	row, col := 0, 0
	if v != nil {
		row, col = v.Row, v.Col
	}
	l.Errors = append(l.Errors, &Error{Path: path, Row: row, Col: col, Msg: fmt.Sprintf(format, args...)})
}

// OK reports whether validation produced zero errors.
func (l *Log) OK() bool { return len(l.Errors) == 0 }

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "/" + name
}

// Validate checks root against the drum-font schema and returns the
// accumulated error log. root may be the NameValue moniker form
// (`Dfx = {...}`) or a bare top-level object.
func Validate(root *fontparser.Value) *Log {
	log := &Log{}

	top := root
	if root.Kind == fontparser.VNameValue {
		top = root.Child
	}
	if top.Kind != fontparser.VObject {
		log.add("", top, "top-level value must be an object of kits")
		return log
	}

	for _, kitMember := range top.Members {
		validateKit(log, kitMember.Name, kitMember.Child)
	}
	return log
}

// ValidateInstrumentBody validates a drum-scoped sub-document (the
// contents of an `include` file) against the same instrument rules
// `Validate` applies inline, with path rooted at name.
func ValidateInstrumentBody(name string, body *fontparser.Value) *Log {
	log := &Log{}
	top := body
	if body.Kind == fontparser.VNameValue {
		top = body.Child
	}
	validateDrum(log, name, top)
	return log
}

func validateKit(log *Log, path string, kit *fontparser.Value) {
	if kit.Kind != fontparser.VObject {
		log.add(path, kit, "kit value must be an object")
		return
	}

	optionalString(log, path, kit, "path")
	optionalString(log, path, kit, "include_base_path")

	instruments, ok := kit.Get("instruments")
	if !ok {
		log.add(path, kit, "missing required 'instruments'")
		return
	}
	if instruments.Kind != fontparser.VObject {
		log.add(join(path, "instruments"), instruments, "'instruments' must be an object")
		return
	}

	for _, drumMember := range instruments.Members {
		validateDrum(log, join(path, drumMember.Name), drumMember.Child)
	}
}

func validateDrum(log *Log, path string, drum *fontparser.Value) {
	if drum.Kind != fontparser.VObject {
		log.add(path, drum, "instrument value must be an object")
		return
	}

	optionalString(log, path, drum, "path")

	note, hasNote := drum.Get("note")
	if !hasNote {
		log.add(path, drum, "NoteMissing: missing required 'note'")
	} else if !requireWholeNumber(log, join(path, "note"), note, 0, 127) {
		// error already logged
	}

	_, hasInclude := drum.Get("include")
	velocities, hasVelocities := drum.Get("velocities")

	switch {
	case hasInclude && hasVelocities:
		log.add(path, drum, "instrument may not have both 'include' and 'velocities'")
	case hasInclude:
		optionalString(log, path, drum, "include")
	case hasVelocities:
		validateVelocities(log, path, velocities)
	default:
		log.add(path, drum, "instrument must have either 'include' or 'velocities'")
	}
}

func validateVelocities(log *Log, path string, velocities *fontparser.Value) {
	if velocities.Kind != fontparser.VArray {
		log.add(join(path, "velocities"), velocities, "'velocities' must be an array")
		return
	}
	for _, layer := range velocities.Elements {
		validateVelocityLayer(log, path, layer)
	}
}

func validateVelocityLayer(log *Log, path string, layerMember *fontparser.Value) {
	if layerMember.Kind != fontparser.VNameValue {
		log.add(join(path, "velocities"), layerMember, "velocity layer entry must be named 'v<code>'")
		return
	}
	name := layerMember.Name
	layerPath := join(path, name)

	code, ok := parseVelocityCode(name)
	if !ok {
		log.add(layerPath, layerMember, "InvalidVelocityCode: velocity layer name must be 'v' followed by digits 0-127, got %q", name)
		return
	}
	if code < 0 || code > 127 {
		log.add(layerPath, layerMember, "InvalidVelocityCode: velocity code %d out of range [0,127]", code)
	}

	layer := layerMember.Child
	if layer.Kind != fontparser.VObject {
		log.add(layerPath, layer, "velocity layer value must be an object")
		return
	}

	optionalString(log, layerPath, layer, "path")

	robins, ok := layer.Get("robins")
	if !ok {
		log.add(layerPath, layer, "missing required non-empty 'robins'")
		return
	}
	if robins.Kind != fontparser.VArray || len(robins.Elements) == 0 {
		log.add(join(layerPath, "robins"), robins, "'robins' must be a non-empty array")
		return
	}

	for _, r := range robins.Elements {
		validateRobin(log, layerPath, r)
	}
}

func parseVelocityCode(name string) (int, bool) {
	if len(name) < 2 || name[0] != 'v' {
		return 0, false
	}
	for i := 1; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

func validateRobin(log *Log, path string, robinMember *fontparser.Value) {
	if robinMember.Kind != fontparser.VNameValue {
		log.add(join(path, "robins"), robinMember, "robin entry must be a named value")
		return
	}
	robinPath := join(path, robinMember.Name)
	robin := robinMember.Child
	if robin.Kind != fontparser.VObject {
		log.add(robinPath, robin, "robin value must be an object")
		return
	}

	fname, ok := robin.Get("fname")
	if !ok {
		log.add(robinPath, robin, "missing required 'fname'")
	} else if fname.Kind != fontparser.VQuotedString && fname.Kind != fontparser.VUnquotedString {
		log.add(join(robinPath, "fname"), fname, "'fname' must be a string")
	}

	if offset, ok := robin.Get("offset"); ok {
		requireWholeNumber(log, join(robinPath, "offset"), offset, math.MinInt32, math.MaxInt32)
	}

	if peak, ok := robin.Get("peak"); ok {
		validateUnitRange(log, join(robinPath, "peak"), peak)
	}
	if rms, ok := robin.Get("rms"); ok {
		validateUnitRange(log, join(robinPath, "rms"), rms)
	}
}

// validateUnitRange mutates a quoted-string node that parses as a
// number into a number node in place, then requires 0 < x <= 1.
func validateUnitRange(log *Log, path string, v *fontparser.Value) {
	if v.Kind == fontparser.VQuotedString {
		mutateNumericString(v)
	}
	if v.Kind != fontparser.VNumber {
		log.add(path, v, "must be a number (optionally with a ratio unit)")
		return
	}
	x := v.Num.X()
	if !(x > 0 && x <= 1) {
		log.add(path, v, "must satisfy 0 < x <= 1 after unit conversion, got %v", x)
	}
}

// mutateNumericString rewrites v from a quoted string into a number
// node in place when its full text parses as one engineering-notation
// literal (e.g. `"-6 dB"`).
func mutateNumericString(v *fontparser.Value) {
	text := v.Str
	// tolerate a single space between the numeric part and its unit,
	// which the font lexer's own number grammar does not allow inline.
	trimmed := text
	if i := indexOfSpaceBeforeUnit(text); i >= 0 {
		trimmed = text[:i] + text[i+1:]
	}
	e, end, err := numlex.ParseAt(trimmed, 0)
	if err != nil || end != len(trimmed) {
		return
	}
	v.Kind = fontparser.VNumber
	v.Num = e
	v.Str = ""
}

func indexOfSpaceBeforeUnit(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			return i
		}
	}
	return -1
}

func optionalString(log *Log, path string, v *fontparser.Value, name string) {
	child, ok := v.Get(name)
	if !ok {
		return
	}
	if child.Kind != fontparser.VQuotedString && child.Kind != fontparser.VUnquotedString {
		log.add(join(path, name), child, "%q must be a string", name)
	}
}

// requireWholeNumber logs an error and returns false unless v is a
// number node whose value is integral and within [lo, hi].
func requireWholeNumber(log *Log, path string, v *fontparser.Value, lo, hi int) bool {
	if v.Kind != fontparser.VNumber {
		log.add(path, v, "must be a whole number")
		return false
	}
	x := v.Num.X()
	if x != math.Trunc(x) {
		log.add(path, v, "must be a whole number, got %v", x)
		return false
	}
	if int(x) < lo || int(x) > hi {
		log.add(path, v, "out of range [%d,%d]: %v", lo, hi, x)
		return false
	}
	return true
}
