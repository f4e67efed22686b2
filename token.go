package texpect

import (
	"fmt"
	"iter"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind classifies the tokens of an expected output template.
type TokenKind int

const (
	TokLiteral TokenKind = iota
	TokWhitespace
	TokNewline
	TokTag
	TokInput
	TokInputEnd
	TokWarning
	TokEnd
)

func (k TokenKind) String() string {
	switch k {
	case TokLiteral:
		return "literal"
	case TokWhitespace:
		return "whitespace"
	case TokNewline:
		return "newline"
	case TokTag:
		return "tag"
	case TokInput:
		return "input"
	case TokInputEnd:
		return "input-end"
	case TokWarning:
		return "warning"
	case TokEnd:
		return "end"
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Warning tells what is suspicious about a TokWarning token.
type Warning int

const (
	WarnNone Warning = iota
	// A capture tag was found inside of an input.
	WarnTagInInput
	// Something looks like an input but is not at the end of its line.
	WarnInputNotAtEnd
)

func (w Warning) String() string {
	switch w {
	case WarnTagInInput:
		return "tag-inside-input"
	case WarnInputNotAtEnd:
		return "input-not-at-the-end"
	}
	return "none"
}

// Token is one piece of a template. Offset is the byte offset into the
// template. TokInput tokens carry the input's value without the brackets,
// TokWarning tokens carry the offending text. TokInputEnd and TokEnd have
// no text.
type Token struct {
	Offset int
	Kind   TokenKind
	Text   string
	Warn   Warning
}

// EllipsisTag is the name of the unnamed tag <...>
const EllipsisTag = "..."

var (
	tagRgx        = regexp.MustCompile(`<[\p{L}\p{N}_.\-]+>`)
	inputRgx      = regexp.MustCompile(`\[([^\[\]]*)\][\s\v\x{85}\p{Z}]*$`)
	inputCheckRgx = regexp.MustCompile(`\[[^\[\]]*\]`)
)

func isSpace(r rune) bool { return r != '\n' && unicode.IsSpace(r) }

// tagName returns the name of tag text like "<foo>" or "" for "<...>".
func tagName(tag string) string {
	name := tag[1 : len(tag)-1]
	if name == EllipsisTag {
		return ""
	}
	return name
}

// Tokens returns the tokens of template. Iterating the sequence again
// tokenizes the template again from its start. With tags false capture tags
// are literals, with input false input markers are literals.
//
// Warnings are reported as tokens ahead of the tokens of the line they
// refer to. Their offsets are not monotonic with the other tokens.
func Tokens(template string, tags, input bool) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		tz := tokenizer{tags: tags, input: input, yield: yield}
		off := 0
		for off < len(template) {
			if template[off] == '\n' {
				end := off
				for end < len(template) && template[end] == '\n' {
					end++
				}
				if !yield(Token{Offset: off, Kind: TokNewline, Text: template[off:end]}) {
					return
				}
				off = end
				continue
			}
			eol := strings.IndexByte(template[off:], '\n')
			if eol < 0 {
				eol = len(template)
			} else {
				eol += off
			}
			if !tz.line(template[off:eol], off) {
				return
			}
			off = eol
		}
		yield(Token{Offset: len(template), Kind: TokEnd})
	}
}

type tokenizer struct {
	tags, input bool
	yield       func(Token) bool

	inputAt  int // absolute offset of the current line's input or -1
	inputVal string
}

func (tz *tokenizer) line(line string, base int) bool {
	tz.inputAt = -1
	if tz.input {
		head := line
		if m := inputRgx.FindStringSubmatchIndex(line); m != nil {
			tz.inputAt = base + m[0]
			tz.inputVal = line[m[2]:m[3]]
			head = line[:m[0]]
			if tz.tags {
				if t := tagRgx.FindString(tz.inputVal); t != "" {
					if !tz.yield(Token{
						Offset: tz.inputAt,
						Kind:   TokWarning,
						Text:   t,
						Warn:   WarnTagInInput,
					}) {
						return false
					}
				}
			}
		}
		if loc := inputCheckRgx.FindStringIndex(head); loc != nil {
			if !tz.yield(Token{
				Offset: base + loc[0],
				Kind:   TokWarning,
				Text:   head[loc[0]:loc[1]],
				Warn:   WarnInputNotAtEnd,
			}) {
				return false
			}
		}
	}
	for i := 0; i < len(line); {
		r, _ := utf8.DecodeRuneInString(line[i:])
		ws := isSpace(r)
		j := i
		for j < len(line) {
			r, sz := utf8.DecodeRuneInString(line[j:])
			if isSpace(r) != ws {
				break
			}
			j += sz
		}
		if ws {
			if !tz.yield(Token{Offset: base + i, Kind: TokWhitespace, Text: line[i:j]}) {
				return false
			}
		} else if !tz.word(line[i:j], base+i) {
			return false
		}
		i = j
	}
	if tz.inputAt >= 0 {
		return tz.yield(Token{Offset: base + len(line), Kind: TokInputEnd})
	}
	return true
}

func (tz *tokenizer) word(word string, off int) bool {
	if !tz.tags {
		return tz.literal(word, off)
	}
	start := 0
	for _, loc := range tagRgx.FindAllStringIndex(word, -1) {
		if loc[0] > start && !tz.literal(word[start:loc[0]], off+start) {
			return false
		}
		if !tz.yield(Token{Offset: off + loc[0], Kind: TokTag, Text: word[loc[0]:loc[1]]}) {
			return false
		}
		start = loc[1]
	}
	if start < len(word) {
		return tz.literal(word[start:], off+start)
	}
	return true
}

// literal splits literals at the start of the line's input so that the
// input token comes right before the literals that echo the input.
func (tz *tokenizer) literal(lit string, off int) bool {
	if tz.inputAt < off || tz.inputAt >= off+len(lit) {
		return tz.yield(Token{Offset: off, Kind: TokLiteral, Text: lit})
	}
	brk := tz.inputAt - off
	if brk > 0 {
		if !tz.yield(Token{Offset: off, Kind: TokLiteral, Text: lit[:brk]}) {
			return false
		}
	}
	if !tz.yield(Token{Offset: tz.inputAt, Kind: TokInput, Text: tz.inputVal}) {
		return false
	}
	return tz.yield(Token{Offset: tz.inputAt, Kind: TokLiteral, Text: lit[brk:]})
}
