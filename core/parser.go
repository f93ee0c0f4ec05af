package core

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
)

// ReferenceResolver resolves an indirect reference to its object. The parser
// needs one only for streams whose /Length is itself indirect.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// Parser builds objects from the token stream of a Lexer. It keeps one token
// of lookahead, which is enough to recognise "n g R" references.
type Parser struct {
	lex      *Lexer
	tok      *Token // current
	ahead    *Token // lookahead; nil after "stream" or a lexer failure
	resolver ReferenceResolver
	err      error // first lexer error, sticky
}

// NewParser returns a parser reading from r.
func NewParser(r io.Reader) *Parser {
	return newParserOn(NewLexer(r))
}

// newParserOn continues parsing from wherever lex stands.
func newParserOn(lex *Lexer) *Parser {
	p := &Parser{lex: lex}
	p.advance()
	p.advance()
	return p
}

// SetReferenceResolver installs the resolver used for indirect stream
// lengths.
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// advance shifts the lookahead into the current token. The bytes after a
// "stream" keyword are raw data, so nothing is lexed past it.
func (p *Parser) advance() {
	p.tok = p.ahead
	p.ahead = nil
	if p.is(TokenKeyword, "stream") || p.err != nil {
		return
	}
	tok, err := p.lex.NextToken()
	if err != nil {
		p.err = err
		return
	}
	p.ahead = tok
}

func (p *Parser) is(typ TokenType, value string) bool {
	return p.tok != nil && p.tok.Type == typ && string(p.tok.Value) == value
}

func (p *Parser) skipComments() {
	for p.tok != nil && p.tok.Type == TokenComment {
		p.advance()
	}
}

// truncated reports running out of tokens inside construct. A lexer
// failure is wrapped so callers can inspect it.
func (p *Parser) truncated(construct string) error {
	if p.err != nil {
		return fmt.Errorf("%s: %w", construct, p.err)
	}
	return fmt.Errorf("unexpected end of input in %s", construct)
}

// ParseObject parses the next direct object. It returns io.EOF once the
// input is exhausted.
func (p *Parser) ParseObject() (Object, error) {
	p.skipComments()
	tok := p.tok
	if tok == nil {
		return nil, p.truncated("object")
	}

	switch tok.Type {
	case TokenEOF:
		return nil, io.EOF
	case TokenArrayStart:
		return p.parseArray()
	case TokenDictStart:
		return p.parseDict()
	case TokenInteger:
		return p.parseIntOrRef()
	}

	var obj Object
	switch tok.Type {
	case TokenKeyword:
		switch string(tok.Value) {
		case "null":
			obj = Null{}
		case "true":
			obj = Bool(true)
		case "false":
			obj = Bool(false)
		default:
			return nil, fmt.Errorf("unexpected keyword %q at offset %d", tok.Value, tok.Pos)
		}
	case TokenReal:
		f, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("bad real %q at offset %d", tok.Value, tok.Pos)
		}
		obj = Real(f)
	case TokenString:
		obj = String(tok.Value)
	case TokenHexString:
		digits := tok.Value
		if len(digits)%2 == 1 {
			digits = append(digits, '0')
		}
		b := make([]byte, len(digits)/2)
		if _, err := hex.Decode(b, digits); err != nil {
			return nil, fmt.Errorf("bad hex string at offset %d: %w", tok.Pos, err)
		}
		obj = String(b)
	case TokenName:
		obj = Name(tok.Value)
	default:
		return nil, fmt.Errorf("unexpected token %v at offset %d", tok.Type, tok.Pos)
	}
	p.advance()
	return obj, nil
}

// parseIntOrRef parses an integer, or a reference when the integer starts
// an "n g R" triple. Two integers not followed by R leave the parser on the
// second one.
func (p *Parser) parseIntOrRef() (Object, error) {
	n, err := strconv.ParseInt(string(p.tok.Value), 10, 64)
	if err != nil {
		// Signs and digits only, so this is an overflowing integer.
		f, ferr := strconv.ParseFloat(string(p.tok.Value), 64)
		if ferr != nil {
			return nil, fmt.Errorf("bad number %q at offset %d", p.tok.Value, p.tok.Pos)
		}
		p.advance()
		return Real(f), nil
	}

	if p.ahead == nil || p.ahead.Type != TokenInteger {
		p.advance()
		return Int(n), nil
	}
	gen, err := strconv.ParseInt(string(p.ahead.Value), 10, 64)
	if err != nil {
		p.advance()
		return Int(n), nil
	}
	p.advance()
	if p.ahead == nil || p.ahead.Type != TokenIndirectRef {
		return Int(n), nil
	}
	p.advance()
	p.advance()
	return IndirectRef{Number: int(n), Generation: int(gen)}, nil
}

func (p *Parser) parseArray() (Object, error) {
	p.advance() // [
	var arr Array
	for {
		p.skipComments()
		switch {
		case p.tok == nil:
			return nil, p.truncated("array")
		case p.tok.Type == TokenEOF:
			return nil, fmt.Errorf("unexpected end of input in array")
		case p.tok.Type == TokenArrayEnd:
			p.advance()
			return arr, nil
		}
		elem, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("array element %d: %w", len(arr), err)
		}
		arr = append(arr, elem)
	}
}

func (p *Parser) parseDict() (Object, error) {
	p.advance() // <<
	dict := Dict{}
	for {
		p.skipComments()
		switch {
		case p.tok == nil:
			return nil, p.truncated("dictionary")
		case p.tok.Type == TokenEOF:
			return nil, fmt.Errorf("unexpected end of input in dictionary")
		case p.tok.Type == TokenDictEnd:
			p.advance()
			return dict, nil
		case p.tok.Type != TokenName:
			return nil, fmt.Errorf("dictionary key at offset %d is %v, not a name", p.tok.Pos, p.tok.Type)
		}
		key := string(p.tok.Value)
		p.advance()
		val, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("value of /%s: %w", key, err)
		}
		dict[key] = val
	}
}

// ParseIndirectObject parses "n g obj ... endobj", including a stream body
// when the object is a stream.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	p.skipComments()
	num, err := p.headerInt("object number")
	if err != nil {
		return nil, err
	}
	gen, err := p.headerInt("generation number")
	if err != nil {
		return nil, err
	}
	if !p.is(TokenKeyword, "obj") {
		return nil, fmt.Errorf("object %d %d: expected obj, got %v", num, gen, p.tok)
	}
	p.advance()

	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("object %d %d: %w", num, gen, err)
	}
	if p.is(TokenKeyword, "stream") {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, fmt.Errorf("object %d %d: stream follows %v, not a dictionary", num, gen, obj.Type())
		}
		if obj, err = p.parseStreamBody(dict); err != nil {
			return nil, fmt.Errorf("object %d %d: %w", num, gen, err)
		}
	}
	if !p.is(TokenKeyword, "endobj") {
		return nil, fmt.Errorf("object %d %d: expected endobj, got %v", num, gen, p.tok)
	}
	p.advance()

	return &IndirectObject{
		Ref:    IndirectRef{Number: num, Generation: gen},
		Object: obj,
	}, nil
}

func (p *Parser) headerInt(what string) (int, error) {
	if p.tok == nil {
		return 0, p.truncated("indirect object header")
	}
	if p.tok.Type != TokenInteger {
		return 0, fmt.Errorf("expected %s, got %v", what, p.tok.Type)
	}
	n, err := strconv.Atoi(string(p.tok.Value))
	if err != nil {
		return 0, fmt.Errorf("bad %s: %w", what, err)
	}
	p.advance()
	return n, nil
}

// streamLength returns the /Length of a stream dictionary, resolving it
// when it is an indirect reference.
func (p *Parser) streamLength(dict Dict) (int, error) {
	v := dict.Get("Length")
	if ref, ok := v.(IndirectRef); ok {
		if p.resolver == nil {
			return 0, fmt.Errorf("stream /Length %v needs a reference resolver", ref)
		}
		resolved, err := p.resolver.ResolveReference(ref)
		if err != nil {
			return 0, fmt.Errorf("resolving stream /Length %v: %w", ref, err)
		}
		v = resolved
	}

	switch n := v.(type) {
	case nil:
		return 0, fmt.Errorf("stream dictionary has no /Length")
	case Int:
		if n < 0 {
			return 0, fmt.Errorf("negative stream /Length %d", n)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("stream /Length is %T, not an integer", v)
}

// parseStreamBody reads the raw data after the stream keyword and the
// endstream keyword that closes it, then resumes normal lexing.
func (p *Parser) parseStreamBody(dict Dict) (*Stream, error) {
	length, err := p.streamLength(dict)
	if err != nil {
		return nil, err
	}
	if err := p.lex.SkipStreamEOL(); err != nil {
		return nil, fmt.Errorf("after stream keyword: %w", err)
	}
	data, err := p.lex.ReadBytes(length)
	if err != nil {
		return nil, fmt.Errorf("stream data: %w", err)
	}

	end, err := p.lex.NextToken()
	if err != nil {
		return nil, fmt.Errorf("after stream data: %w", err)
	}
	if end.Type != TokenKeyword || string(end.Value) != "endstream" {
		return nil, fmt.Errorf("expected endstream at offset %d, got %q", end.Pos, end.Value)
	}

	p.tok, p.ahead = nil, nil
	p.advance()
	p.advance()
	return &Stream{Dict: dict, Data: data}, nil
}
