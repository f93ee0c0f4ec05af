package core

import (
	"bufio"
	"fmt"
	"io"
)

// TokenType classifies a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenWhitespace
	TokenComment
	TokenKeyword // obj, endobj, stream, true, null, ...
	TokenInteger
	TokenReal
	TokenString    // (...)
	TokenHexString // <...>
	TokenName      // /Name
	TokenArrayStart
	TokenArrayEnd
	TokenDictStart
	TokenDictEnd
	TokenIndirectRef // the R of "n g R"
)

// Token is one lexical unit of PDF syntax. Value holds the decoded form:
// literal strings with escapes applied, names without the slash and with
// #xx resolved, hex strings as bare digits, and numbers and keywords as
// written.
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int64
}

// Lexer splits PDF syntax into tokens. Whitespace is skipped; comments are
// returned as tokens so callers can decide what to do with them.
type Lexer struct {
	src *bufio.Reader
	pos int64
}

// NewLexer returns a lexer reading from r.
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{src: bufio.NewReader(r)}
}

// Pos returns the number of bytes consumed so far.
func (l *Lexer) Pos() int64 {
	return l.pos
}

// NextToken scans the next token. At end of input it returns a TokenEOF
// token and a nil error.
func (l *Lexer) NextToken() (*Token, error) {
	if err := l.skipSpace(); err != nil && err != io.EOF {
		return nil, err
	}

	start := l.pos
	c, ok := l.lookAt(0)
	if !ok {
		return &Token{Type: TokenEOF, Pos: start}, nil
	}

	switch {
	case c == '%':
		return l.scanComment(start)
	case c == '(':
		return l.scanLiteralString(start)
	case c == '/':
		return l.scanName(start)
	case c == '[':
		return l.punct(TokenArrayStart, start, 1)
	case c == ']':
		return l.punct(TokenArrayEnd, start, 1)
	case c == '<':
		if next, _ := l.lookAt(1); next == '<' {
			return l.punct(TokenDictStart, start, 2)
		}
		return l.scanHexString(start)
	case c == '>':
		if next, _ := l.lookAt(1); next == '>' {
			return l.punct(TokenDictEnd, start, 2)
		}
		return nil, &SyntaxError{Pos: start, Msg: "unexpected '>'"}
	case isNumberStart(c):
		return l.scanNumber(start)
	case isLetter(c):
		return l.scanKeyword(start)
	}
	return nil, &SyntaxError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", c)}
}

// ReadBytes reads exactly n raw bytes, as needed for stream data. A short
// read returns the bytes that were available and an error wrapping
// io.ErrUnexpectedEOF.
func (l *Lexer) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(l.src, buf)
	l.pos += int64(got)
	switch err {
	case nil:
		return buf, nil
	case io.EOF, io.ErrUnexpectedEOF:
		return buf[:got], fmt.Errorf("%w: expected %d bytes, got %d", io.ErrUnexpectedEOF, n, got)
	default:
		return buf[:got], err
	}
}

// SkipStreamEOL consumes the end-of-line marker that follows the stream
// keyword. CRLF and LF are standard; a lone CR and spaces or tabs before
// the marker are accepted too.
func (l *Lexer) SkipStreamEOL() error {
	for {
		c, err := l.peekByte()
		if err != nil {
			return err
		}
		if c != ' ' && c != '\t' {
			break
		}
		l.advance(1)
	}

	c, err := l.peekByte()
	if err != nil {
		return err
	}
	if c == '\n' {
		l.advance(1)
	} else if c == '\r' {
		l.advance(1)
		l.skipIf('\n')
	}
	return nil
}

func (l *Lexer) punct(typ TokenType, start int64, n int) (*Token, error) {
	val := make([]byte, n)
	for i := range val {
		val[i], _ = l.next()
	}
	return &Token{Type: typ, Value: val, Pos: start}, nil
}

func (l *Lexer) scanComment(start int64) (*Token, error) {
	var val []byte
	for {
		c, err := l.peekByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		l.advance(1)
		if c == '\n' {
			break
		}
		if c == '\r' {
			l.skipIf('\n')
			break
		}
		val = append(val, c)
	}
	return &Token{Type: TokenComment, Value: val, Pos: start}, nil
}

func (l *Lexer) scanLiteralString(start int64) (*Token, error) {
	l.advance(1) // (
	var val []byte
	depth := 1
	for {
		c, err := l.next()
		if err != nil {
			return nil, l.unterminated("string", start, err)
		}
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return &Token{Type: TokenString, Value: val, Pos: start}, nil
			}
		case '\\':
			esc, err := l.next()
			if err != nil {
				return nil, l.unterminated("string", start, err)
			}
			val = l.translateEscape(val, esc)
			continue
		}
		val = append(val, c)
	}
}

var simpleEscapes = map[byte]byte{
	'n': '\n', 'r': '\r', 't': '\t', 'b': '\b', 'f': '\f',
	'(': '(', ')': ')', '\\': '\\',
}

// translateEscape appends the byte produced by the escape sequence
// beginning with esc, reading any further octal digits it needs.
func (l *Lexer) translateEscape(val []byte, esc byte) []byte {
	if b, ok := simpleEscapes[esc]; ok {
		return append(val, b)
	}
	switch {
	case esc == '\n':
		return val
	case esc == '\r':
		l.skipIf('\n')
		return val
	case isOctal(esc):
		code := esc - '0'
		for i := 0; i < 2; i++ {
			c, ok := l.lookAt(0)
			if !ok || !isOctal(c) {
				break
			}
			l.advance(1)
			code = code<<3 | (c - '0')
		}
		return append(val, code)
	}
	return append(val, esc)
}

func (l *Lexer) scanHexString(start int64) (*Token, error) {
	l.advance(1) // <
	var val []byte
	for {
		c, err := l.next()
		if err != nil {
			return nil, l.unterminated("hex string", start, err)
		}
		switch {
		case c == '>':
			return &Token{Type: TokenHexString, Value: val, Pos: start}, nil
		case isSpace(c):
		case hexNibble(c) >= 0:
			val = append(val, c)
		default:
			return nil, &SyntaxError{Pos: l.pos - 1, Msg: fmt.Sprintf("invalid hex digit %q", c)}
		}
	}
}

func (l *Lexer) scanName(start int64) (*Token, error) {
	l.advance(1) // /
	var val []byte
	for {
		c, ok := l.lookAt(0)
		if !ok || isDelimiter(c) {
			return &Token{Type: TokenName, Value: val, Pos: start}, nil
		}
		l.advance(1)
		if c != '#' {
			val = append(val, c)
			continue
		}

		at := l.pos
		hi, err := l.next()
		if err != nil {
			return nil, l.unterminated("name", start, err)
		}
		lo, err := l.next()
		if err != nil {
			return nil, l.unterminated("name", start, err)
		}
		h, w := hexNibble(hi), hexNibble(lo)
		if h < 0 || w < 0 {
			return nil, &SyntaxError{Pos: at, Msg: "invalid hex escape in name"}
		}
		val = append(val, byte(h<<4|w))
	}
}

// scanNumber reads an optionally signed integer or real. A second decimal
// point ends the number.
func (l *Lexer) scanNumber(start int64) (*Token, error) {
	var val []byte
	dot := false
	for {
		c, ok := l.lookAt(0)
		if !ok {
			break
		}
		if c == '.' && !dot {
			dot = true
		} else if !isDigit(c) && !(len(val) == 0 && (c == '+' || c == '-')) {
			break
		}
		l.advance(1)
		val = append(val, c)
	}

	typ := TokenInteger
	if dot {
		typ = TokenReal
	}
	return &Token{Type: typ, Value: val, Pos: start}, nil
}

func (l *Lexer) scanKeyword(start int64) (*Token, error) {
	var val []byte
	for {
		c, ok := l.lookAt(0)
		if !ok || !(isLetter(c) || isDigit(c)) {
			break
		}
		l.advance(1)
		val = append(val, c)
	}

	typ := TokenKeyword
	if len(val) == 1 && val[0] == 'R' {
		typ = TokenIndirectRef
	}
	return &Token{Type: typ, Value: val, Pos: start}, nil
}

func (l *Lexer) unterminated(what string, start int64, err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("unterminated %s at offset %d: %w", what, start, err)
}

func (l *Lexer) skipSpace() error {
	for {
		c, err := l.peekByte()
		if err != nil {
			return err
		}
		if !isSpace(c) {
			return nil
		}
		l.advance(1)
	}
}

func (l *Lexer) skipIf(want byte) {
	if c, ok := l.lookAt(0); ok && c == want {
		l.advance(1)
	}
}

func (l *Lexer) next() (byte, error) {
	c, err := l.src.ReadByte()
	if err != nil {
		return 0, err
	}
	l.pos++
	return c, nil
}

func (l *Lexer) peekByte() (byte, error) {
	b, err := l.src.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// lookAt returns the byte i positions ahead without consuming anything.
func (l *Lexer) lookAt(i int) (byte, bool) {
	b, _ := l.src.Peek(i + 1)
	if len(b) <= i {
		return 0, false
	}
	return b[i], true
}

func (l *Lexer) advance(n int) {
	got, _ := l.src.Discard(n)
	l.pos += int64(got)
}

// isSpace reports the six PDF white-space characters.
func isSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

// isDelimiter reports bytes that end a name or keyword, white space
// included.
func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return isSpace(c)
}

func isDigit(c byte) bool  { return '0' <= c && c <= '9' }
func isOctal(c byte) bool  { return '0' <= c && c <= '7' }
func isLetter(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }

func isNumberStart(c byte) bool {
	return isDigit(c) || c == '+' || c == '-' || c == '.'
}

// hexNibble returns the value of a hex digit, or -1.
func hexNibble(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
