// Package fontparser builds a tagged-value tree from a fontlex token
// stream: the recursive-descent grammar behind the drum-font language.
package fontparser

import (
	"fmt"

	"github.com/bflamig/dfxplay/internal/fontlex"
	"github.com/bflamig/dfxplay/internal/numlex"
)

// ValueKind tags the variant a Value node holds.
type ValueKind int

const (
	VQuotedString ValueKind = iota
	VUnquotedString
	VNumber
	VTrue
	VFalse
	VNull
	VNameValue
	VObject
	VArray
)

// Value is a node of the parsed tagged-value tree. Which fields are
// meaningful depends on Kind: Str for the two string kinds, Num for
// VNumber, Name+Child for VNameValue, Members for VObject (an ordered
// list of VNameValue children), Elements for VArray.
type Value struct {
	Kind     ValueKind
	Str      string
	Num      numlex.EngrNum
	Name     string
	Child    *Value
	Members  []*Value
	Elements []*Value
	Row, Col int
}

// Get looks up a member of an Object node by name, returning its value
// (the NameValue's child) and whether it was found.
func (v *Value) Get(name string) (*Value, bool) {
	for _, m := range v.Members {
		if m.Name == name {
			return m.Child, true
		}
	}
	return nil, false
}

// ParseError is a positioned syntax error.
type ParseError struct {
	Row, Col int
	Msg      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("fontparser: %s at %d:%d", e.Msg, e.Row, e.Col)
}

// Parser consumes a fontlex token stream, with one token of lookahead,
// and builds a Value tree.
type Parser struct {
	lex   *fontlex.Lexer
	cur   fontlex.Token
	la    fontlex.Token
	laSet bool
}

// New returns a Parser over src.
func New(src string) *Parser {
	p := &Parser{lex: fontlex.New(src)}
	p.cur = p.lex.Next()
	return p
}

// advance shifts the lookahead (fetching one if needed) into cur.
func (p *Parser) advance() {
	if p.laSet {
		p.cur = p.la
		p.laSet = false
		return
	}
	p.cur = p.lex.Next()
}

func (p *Parser) peek() fontlex.Token {
	if !p.laSet {
		p.la = p.lex.Next()
		p.laSet = true
	}
	return p.la
}

func (p *Parser) errorf(format string, args ...any) error {
	return &ParseError{Row: p.cur.StartRow, Col: p.cur.StartCol, Msg: fmt.Sprintf(format, args...)}
}

// Parse consumes the entire token stream and returns the root Value.
// The root is a NameValue when the input opens with `name = value` or
// `"name": value` (the moniker form kit files use); otherwise it is a
// bare value.
func (p *Parser) Parse() (*Value, error) {
	if p.cur.Kind == fontlex.ERROR {
		return nil, p.lex.LastError()
	}

	v, err := p.parseFile()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != fontlex.EOT {
		return nil, p.errorf("unexpected trailing token %q", p.cur.Text)
	}
	return v, nil
}

func (p *Parser) parseFile() (*Value, error) {
	if (p.cur.Kind == fontlex.UnquotedString || p.cur.Kind == fontlex.QuotedString) && p.peek().Kind == fontlex.NameValueSep {
		return p.parseMember()
	}
	return p.parseValue()
}

// parseMember consumes `name sep value` and returns it as a NameValue
// node. Per grammar, an unquoted name is only legal once the lexer has
// locked Bryx mode (on '='); this constraint is left to the validator,
// which has full path context for a clearer error message.
func (p *Parser) parseMember() (*Value, error) {
	if p.cur.Kind != fontlex.UnquotedString && p.cur.Kind != fontlex.QuotedString {
		return nil, p.errorf("expected a member name, got %q", p.cur.Text)
	}
	name := p.cur.Text
	row, col := p.cur.StartRow, p.cur.StartCol
	p.advance()

	if p.cur.Kind != fontlex.NameValueSep {
		return nil, p.errorf("expected '=' or ':' after name %q", name)
	}
	p.advance()

	child, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	return &Value{Kind: VNameValue, Name: name, Child: child, Row: row, Col: col}, nil
}

func (p *Parser) parseValue() (*Value, error) {
	row, col := p.cur.StartRow, p.cur.StartCol
	switch p.cur.Kind {
	case fontlex.LBrace:
		return p.parseObject()
	case fontlex.LBracket:
		return p.parseArray()
	case fontlex.QuotedString:
		v := &Value{Kind: VQuotedString, Str: p.cur.Text, Row: row, Col: col}
		p.advance()
		return v, nil
	case fontlex.UnquotedString:
		v := &Value{Kind: VUnquotedString, Str: p.cur.Text, Row: row, Col: col}
		p.advance()
		return v, nil
	case fontlex.Number:
		v := &Value{Kind: VNumber, Num: p.cur.Number, Row: row, Col: col}
		p.advance()
		return v, nil
	case fontlex.True:
		p.advance()
		return &Value{Kind: VTrue, Row: row, Col: col}, nil
	case fontlex.False:
		p.advance()
		return &Value{Kind: VFalse, Row: row, Col: col}, nil
	case fontlex.Null:
		p.advance()
		return &Value{Kind: VNull, Row: row, Col: col}, nil
	case fontlex.ERROR:
		return nil, p.lex.LastError()
	default:
		return nil, p.errorf("unexpected token %q", p.cur.Text)
	}
}

func (p *Parser) parseObject() (*Value, error) {
	row, col := p.cur.StartRow, p.cur.StartCol
	p.advance() // '{'

	obj := &Value{Kind: VObject, Row: row, Col: col}
	if p.cur.Kind == fontlex.RBrace {
		p.advance()
		return obj, nil
	}

	for {
		member, err := p.parseMember()
		if err != nil {
			return nil, err
		}
		obj.Members = append(obj.Members, member)

		if p.cur.Kind == fontlex.Comma {
			p.advance()
			continue
		}
		break
	}

	if p.cur.Kind != fontlex.RBrace {
		return nil, p.errorf("expected '}', got %q", p.cur.Text)
	}
	p.advance()
	return obj, nil
}

func (p *Parser) parseArray() (*Value, error) {
	row, col := p.cur.StartRow, p.cur.StartCol
	p.advance() // '['

	arr := &Value{Kind: VArray, Row: row, Col: col}
	if p.cur.Kind == fontlex.RBracket {
		p.advance()
		return arr, nil
	}

	for {
		elem, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, elem)

		if p.cur.Kind == fontlex.Comma {
			p.advance()
			continue
		}
		break
	}

	if p.cur.Kind != fontlex.RBracket {
		return nil, p.errorf("expected ']', got %q", p.cur.Text)
	}
	p.advance()
	return arr, nil
}
