package rexl

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lyraproj/issue/issue"
)

type TokenKind int
type stateFunc func(l *Lexer) stateFunc

const (
	TokenName TokenKind = iota
	TokenUnquotedLiteral
	TokenQuotedLiteral
	TokenNumericLiteral
	TokenSymbol
)

func (k TokenKind) String() string {
	switch k {
	case TokenName:
		return "Name"
	case TokenUnquotedLiteral:
		return "UnquotedLiteral"
	case TokenQuotedLiteral:
		return "QuotedLiteral"
	case TokenNumericLiteral:
		return "NumericLiteral"
	case TokenSymbol:
		return "Symbol"
	default:
		return "Unknown"
	}
}

// symbolTable lists every operator and punctuation token. Longer symbols
// must come before their prefixes: the alternation below is leftmost-first.
var symbolTable = []string{
	"!=~~", "!=~", "!==", "!~~", "=~~",
	"!=", "!~", "=~", "==", "<=", ">=", "~~",
	"|", "&", "!", "=", "<", ">", "~",
	"+", "-", "*", "/", "^",
	".", ",", "(", ")", "[", "]", "@", ":", ";",
}

const (
	namePattern   = `[\p{L}_][\p{L}\p{N}_]*|"(?:[^"]|"")*"`
	numberPattern = `[0-9]+(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?`
)

type tokenPattern struct {
	kind TokenKind
	re   *regexp.Regexp
}

// tokenPatterns are tried in order; the first match wins.
var tokenPatterns = []tokenPattern{
	{TokenName, regexp.MustCompile(`^(?:` + namePattern + `)`)},
	{TokenUnquotedLiteral, regexp.MustCompile(`^@(?:` + namePattern + `)\[[^\]]*\]`)},
	{TokenQuotedLiteral, regexp.MustCompile(`^'(?:[^']|'')*'`)},
	{TokenNumericLiteral, regexp.MustCompile(`^` + numberPattern)},
	{TokenSymbol, regexp.MustCompile(`^(?:` + quoteSymbols() + `)`)},
}

func quoteSymbols() string {
	quoted := make([]string, len(symbolTable))
	for i, s := range symbolTable {
		quoted[i] = regexp.QuoteMeta(s)
	}

	return strings.Join(quoted, "|")
}

// Token is a lexeme of the source with its byte span, End exclusive.
type Token struct {
	Kind  TokenKind
	Text  string
	Start int
	End   int
}

func (t Token) isSymbol(text string) bool {
	return t.Kind == TokenSymbol && t.Text == text
}

type Lexer struct {
	source string
	pos    int
	tokens []Token
	err    error
}

func NewLexer(source string) *Lexer {
	return &Lexer{source: source}
}

// Tokenize splits source into tokens.
func Tokenize(source string) ([]Token, error) {
	return NewLexer(source).Run()
}

func (l *Lexer) Run() ([]Token, error) {
	for state := defaultState; state != nil; {
		state = state(l)
	}

	if l.err != nil {
		return nil, l.err
	}

	return l.tokens, nil
}

func defaultState(l *Lexer) stateFunc {
	for {
		r, size := utf8.DecodeRuneInString(l.source[l.pos:])
		switch {
		case size == 0:
			return nil
		case unicode.IsSpace(r):
			l.pos += size
		default:
			return tokenState
		}
	}
}

func tokenState(l *Lexer) stateFunc {
	rest := l.source[l.pos:]
	for _, p := range tokenPatterns {
		if loc := p.re.FindStringIndex(rest); loc != nil && loc[1] > 0 {
			return l.emit(p.kind, loc[1])
		}
	}

	r, size := utf8.DecodeRuneInString(rest)
	return l.errorf(size, UnexpectedCharacter, issue.H{`char`: string(r)})
}

func (l *Lexer) emit(kind TokenKind, length int) stateFunc {
	l.tokens = append(l.tokens, Token{
		Kind:  kind,
		Text:  l.source[l.pos : l.pos+length],
		Start: l.pos,
		End:   l.pos + length,
	})
	l.pos += length

	return defaultState
}

func (l *Lexer) errorf(length int, code issue.Code, args issue.H) stateFunc {
	l.err = newError(KindTokenizer, code, l.source, l.pos, l.pos+length, args)

	return nil
}
