package sqlsplit

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Splitter breaks raw SQL script text into executable statements using the
// lexical rules of a Dialect.
type Splitter struct {
	dialect Dialect
}

// New returns a Splitter for the given dialect.
func New(dialect Dialect) *Splitter {
	return &Splitter{dialect: dialect}
}

// Split is shorthand for splitting with the Postgres dialect.
func Split(input string) ([]string, error) {
	return New(Postgres).Split(input)
}

// Split returns the statements of a script in order. Statements are
// separated by semicolons outside literals and comments and keep their
// terminating semicolon; a trailing statement without one is kept as-is.
// Whitespace-only and comment-only chunks are dropped, but a comment that
// shares a chunk with real SQL stays attached to it. An unterminated
// literal or block comment is an error.
func (s *Splitter) Split(input string) ([]string, error) {
	l := &lexer{input: input, dialect: s.dialect}

	return l.run()
}

const eos = -1

// lexer walks the input rune by rune, tracking the current chunk between
// delimiters and whether it contains anything besides comments.
type lexer struct {
	input   string
	dialect Dialect
	pos     int  // byte offset of the next unread rune
	width   int  // byte width of the rune last read
	start   int  // byte offset where the current chunk begins
	sawSQL  bool // current chunk contains more than comments and whitespace
	stmts   []string
}

func (l *lexer) run() ([]string, error) {
	for {
		r := l.next()
		if r == eos {
			l.emit()

			return l.stmts, nil
		}

		if marker, ok := l.lineCommentMarker(); ok {
			l.scanLineComment(marker)

			continue
		}

		if l.markerAhead(l.dialect.BlockCommentStart) {
			if err := l.scanBlockComment(); err != nil {
				return nil, err
			}

			continue
		}

		switch {
		case r == ';':
			l.emit()

		case r == l.dialect.StringQuote:
			if err := l.scanQuoted(r, l.escapesActive()); err != nil {
				return nil, err
			}

			l.sawSQL = true

		case r == l.dialect.IdentQuote:
			if err := l.scanQuoted(r, false); err != nil {
				return nil, err
			}

			l.sawSQL = true

		case r == '$' && l.dialect.DollarQuotes:
			if err := l.scanDollarQuoted(); err != nil {
				return nil, err
			}

			l.sawSQL = true

		case !unicode.IsSpace(r):
			l.sawSQL = true
		}
	}
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		return eos
	}

	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w

	return r
}

// emit closes the chunk at the current position. The text is kept verbatim,
// leading comments included, unless the whole chunk is whitespace or
// comments only.
func (l *lexer) emit() {
	text := strings.TrimSpace(l.input[l.start:l.pos])
	if text != "" && l.sawSQL {
		l.stmts = append(l.stmts, text)
	}

	l.start = l.pos
	l.sawSQL = false
}

// markerAhead reports whether the rune just read begins marker.
func (l *lexer) markerAhead(marker string) bool {
	return marker != "" && strings.HasPrefix(l.input[l.pos-l.width:], marker)
}

func (l *lexer) lineCommentMarker() (string, bool) {
	for _, marker := range l.dialect.LineComments {
		if l.markerAhead(marker) {
			return marker, true
		}
	}

	return "", false
}

// scanLineComment consumes through end of line. Reaching end of input is
// fine; the comment simply ends there.
func (l *lexer) scanLineComment(marker string) {
	l.pos += len(marker) - l.width

	if i := strings.IndexByte(l.input[l.pos:], '\n'); i >= 0 {
		l.pos += i + 1
	} else {
		l.pos = len(l.input)
	}
}

// scanBlockComment consumes a block comment, honoring nesting when the
// dialect allows it.
func (l *lexer) scanBlockComment() error {
	opened := l.lineAt(l.pos - l.width)
	l.pos += len(l.dialect.BlockCommentStart) - l.width

	depth := 1
	for depth > 0 {
		rest := l.input[l.pos:]

		switch {
		case rest == "":
			return fmt.Errorf("%w opened at line %d", ErrUnterminatedComment, opened)

		case l.dialect.NestedComments && strings.HasPrefix(rest, l.dialect.BlockCommentStart):
			depth++
			l.pos += len(l.dialect.BlockCommentStart)

		case strings.HasPrefix(rest, l.dialect.BlockCommentEnd):
			depth--
			l.pos += len(l.dialect.BlockCommentEnd)

		default:
			_, w := utf8.DecodeRuneInString(rest)
			l.pos += w
		}
	}

	return nil
}

// scanQuoted consumes a literal opened by quote. A doubled quote stays
// inside the literal; backslash escapes apply only when the dialect's
// escape prefix preceded the opening quote.
func (l *lexer) scanQuoted(quote rune, backslash bool) error {
	opened := l.lineAt(l.pos - l.width)

	for {
		switch r := l.next(); {
		case r == eos:
			return fmt.Errorf("%w %q opened at line %d", ErrUnterminatedQuote, quote, opened)

		case backslash && r == '\\':
			l.next()

		case r == quote:
			if strings.HasPrefix(l.input[l.pos:], string(quote)) {
				l.next()

				continue
			}

			return nil
		}
	}
}

// escapesActive reports whether the string literal being opened follows the
// dialect's escape prefix, as in E'...'. The prefix must stand alone rather
// than end an identifier, so LIKE'x' stays a plain string.
func (l *lexer) escapesActive() bool {
	if l.dialect.EscapePrefix == 0 {
		return false
	}

	before := l.input[:l.pos-l.width]

	r, w := utf8.DecodeLastRuneInString(before)
	if unicode.ToUpper(r) != unicode.ToUpper(l.dialect.EscapePrefix) {
		return false
	}

	prev, _ := utf8.DecodeLastRuneInString(before[:len(before)-w])

	return !isIdentRune(prev)
}

// scanDollarQuoted consumes a $tag$ ... $tag$ literal when the '$' just
// read opens a valid tag; otherwise the '$' is ordinary content such as a
// positional parameter.
func (l *lexer) scanDollarQuoted() error {
	tag := l.dollarTag(l.pos - l.width)
	if tag == "" {
		return nil
	}

	opened := l.lineAt(l.pos - l.width)
	l.pos += len(tag) - l.width

	i := strings.Index(l.input[l.pos:], tag)
	if i < 0 {
		return fmt.Errorf("%w %s opened at line %d", ErrUnterminatedQuote, tag, opened)
	}

	l.pos += i + len(tag)

	return nil
}

// dollarTag returns the opening tag at off (dollar, tag body, dollar), or
// "" when the text there does not open a dollar-quoted literal. Tag bodies
// follow identifier rules, so $1 never reads as a tag.
func (l *lexer) dollarTag(off int) string {
	body := l.input[off+1:]

	for n := 0; n < len(body); {
		r, w := utf8.DecodeRuneInString(body[n:])

		switch {
		case r == '$':
			return l.input[off : off+1+n+1]

		case n == 0 && !isTagStart(r), n > 0 && !isIdentRune(r):
			return ""
		}

		n += w
	}

	return ""
}

func isTagStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// lineAt returns the 1-based line number of the byte offset.
func (l *lexer) lineAt(off int) int {
	return strings.Count(l.input[:off], "\n") + 1
}
