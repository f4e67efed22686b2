package texpect

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Fragment is one piece of the regular expression an expected output
// template is translated to.
type Fragment struct {
	// Byte offset into the template where the fragment's source starts
	Offset int
	Regex  string
	// Number of literal characters the fragment matches. Zero for
	// fragments that match text of unknown length, e.g. tags.
	RCount int
	// Tag name of a tag fragment. Empty for <...> and non-tag fragments.
	Name    string
	Tag     bool
	BackRef bool
}

const (
	rxStart   = `\A`
	rxEndLit  = `\n*\z`
	rxEndNorm = `\s*\z`
	rxWS      = `\s+(?!\s)`
	rxOneWS   = `\s`
)

// Where a tag stands relative to its surroundings
type tagContext int

const (
	ctxNone    tagContext = iota // between literals
	ctxLeft                      // whitespace left, literal right
	ctxRight                     // literal or start left, whitespace or end right
	ctxBoth                      // whitespace on both sides
	ctxNewline                   // at the end of a template with literal whitespace
)

type smState int

const (
	stInit smState = iota
	stWS
	stLit
	stTag
	stWSTag
	stEnd
	stTwoTags
	stExhausted
	stError
)

// fragBuilder is the state machine that turns tokens into fragments. It
// keeps tokens in a stash until it knows their context.
type fragBuilder struct {
	normWS      bool
	advCaptures bool
	log         *slog.Logger

	state  smState
	stash  []Token
	frags  []Fragment
	tags   map[int]string    // fragment index → tag name, "" for <...>
	groups map[string]string // tag name → regex group name
	owners map[string]string // regex group name → tag name
	events inputEvents
}

func newFragBuilder(cfg *Config, log *slog.Logger) *fragBuilder {
	return &fragBuilder{
		normWS:      cfg.NormWS,
		advCaptures: cfg.AdvCaptures,
		log:         log,
		frags:       []Fragment{{Offset: 0, Regex: rxStart}},
		tags:        make(map[int]string),
		groups:      make(map[string]string),
		owners:      make(map[string]string),
	}
}

// build feeds all tokens through the state machine.
func (b *fragBuilder) build(template string, tags, input bool) error {
	for tok := range Tokens(template, tags, input) {
		switch tok.Kind {
		case TokWarning:
			b.log.Warn("suspicious expected output",
				"warning", tok.Warn,
				"at", tok.Offset,
				"text", tok.Text,
			)
		case TokInput:
			b.events.input(tok.Offset, tok.Text)
		case TokInputEnd:
			b.events.reset(tok.Offset)
		default:
			var err error
			if b.normWS {
				err = b.feedNormWS(tok)
			} else {
				err = b.feedLiteralWS(tok)
			}
			if err != nil {
				b.state = stError
				return err
			}
		}
	}
	return b.finish()
}

func (b *fragBuilder) finish() error {
	if b.state != stEnd {
		return fmt.Errorf("fragment builder stopped in state %d", b.state)
	}
	end := b.pull()
	rx := rxEndLit
	if b.normWS {
		rx = rxEndNorm
	}
	b.emit(Fragment{Offset: end.Offset, Regex: rx})
	b.state = stExhausted
	return nil
}

func isWS(k TokenKind) bool { return k == TokWhitespace || k == TokNewline }

func (b *fragBuilder) feedNormWS(tok Token) error {
	b.push(tok)
	switch b.state {
	case stInit:
		switch {
		case isWS(tok.Kind):
			b.state = stWS
		case tok.Kind == TokLiteral:
			b.state = stLit
		case tok.Kind == TokTag:
			b.state = stTag
		case tok.Kind == TokEnd:
			b.state = stEnd
		}
	case stWS:
		switch {
		case isWS(tok.Kind):
			b.dropLast()
		case tok.Kind == TokLiteral:
			b.emitWS(false)
			b.state = stLit
		case tok.Kind == TokTag:
			b.state = stWSTag
		case tok.Kind == TokEnd:
			// whitespace before the end is covered by the end fragment
			b.dropLast()
			ws := b.pull()
			b.push(Token{Offset: ws.Offset, Kind: TokEnd})
			b.state = stEnd
		}
	case stLit:
		b.emitLiteral()
		b.state = b.nextState(tok.Kind)
	case stTag:
		switch {
		case isWS(tok.Kind):
			if err := b.emitTag(ctxRight, tok.Kind == TokNewline); err != nil {
				return err
			}
			b.state = stWS
		case tok.Kind == TokLiteral:
			if err := b.emitTag(ctxNone, false); err != nil {
				return err
			}
			b.state = stLit
		case tok.Kind == TokTag:
			return b.twoTags()
		case tok.Kind == TokEnd:
			if err := b.emitTag(ctxRight, true); err != nil {
				return err
			}
			b.state = stEnd
		}
	case stWSTag:
		switch {
		case isWS(tok.Kind):
			b.emitWS(true)
			if err := b.emitTag(ctxBoth, tok.Kind == TokNewline); err != nil {
				return err
			}
			b.state = stWS
		case tok.Kind == TokLiteral:
			b.emitWS(false)
			if err := b.emitTag(ctxLeft, false); err != nil {
				return err
			}
			b.state = stLit
		case tok.Kind == TokTag:
			b.stash = b.stash[1:]
			return b.twoTags()
		case tok.Kind == TokEnd:
			b.emitWS(true)
			if err := b.emitTag(ctxBoth, true); err != nil {
				return err
			}
			b.state = stEnd
		}
	default:
		return fmt.Errorf("unexpected %s token at %d in state %d", tok.Kind, tok.Offset, b.state)
	}
	return nil
}

// feedLiteralWS treats whitespace and newlines as literals.
func (b *fragBuilder) feedLiteralWS(tok Token) error {
	b.push(tok)
	switch b.state {
	case stInit:
		b.state = b.nextState(tok.Kind)
	case stLit:
		b.emitLiteral()
		b.state = b.nextState(tok.Kind)
	case stTag:
		switch {
		case tok.Kind == TokTag:
			return b.twoTags()
		case tok.Kind == TokEnd:
			if err := b.emitTag(ctxNewline, true); err != nil {
				return err
			}
			b.state = stEnd
		default:
			if err := b.emitTag(ctxNone, tok.Kind == TokNewline); err != nil {
				return err
			}
			b.state = stLit
		}
	default:
		return fmt.Errorf("unexpected %s token at %d in state %d", tok.Kind, tok.Offset, b.state)
	}
	return nil
}

func (b *fragBuilder) nextState(k TokenKind) smState {
	switch k {
	case TokTag:
		return stTag
	case TokEnd:
		return stEnd
	case TokWhitespace, TokNewline:
		if b.normWS {
			return stWS
		}
	}
	return stLit
}

func (b *fragBuilder) push(tok Token) { b.stash = append(b.stash, tok) }

func (b *fragBuilder) pull() Token {
	tok := b.stash[0]
	b.stash = b.stash[1:]
	return tok
}

func (b *fragBuilder) dropLast() { b.stash = b.stash[:len(b.stash)-1] }

func (b *fragBuilder) emit(f Fragment) { b.frags = append(b.frags, f) }

func (b *fragBuilder) twoTags() error {
	b.state = stTwoTags
	first := b.stash[0]
	return buildErrorf(first.Offset, ErrAdjacentTags, tagName(first.Text),
		"two consecutive capture tags were found at character %d: "+
			"the split between them is ambiguous, "+
			"separate them with some literal text",
		first.Offset,
	)
}

func (b *fragBuilder) emitLiteral() {
	tok := b.pull()
	rx := regexp2.Escape(tok.Text)
	rc := utf8.RuneCountInString(tok.Text)
	b.emit(Fragment{Offset: tok.Offset, Regex: rx, RCount: rc})
	b.events.prefix(tok.Offset, tok.Text, rx, rc)
}

// emitWS emits a whitespace run. With justOne exactly one whitespace
// character is matched and the following tag swallows the rest.
func (b *fragBuilder) emitWS(justOne bool) {
	tok := b.pull()
	rx := rxWS
	if justOne {
		rx = rxOneWS
	}
	b.emit(Fragment{Offset: tok.Offset, Regex: rx, RCount: 1})
	b.events.prefix(tok.Offset, " ", rx, 1)
}

func (b *fragBuilder) emitTag(ctx tagContext, endline bool) error {
	tok := b.pull()
	name := tagName(tok.Text)
	idx := len(b.frags)
	b.events.reset(tok.Offset)
	b.events.syncLost(tok.Offset)
	if name == "" {
		b.tags[idx] = ""
		b.emit(Fragment{Offset: tok.Offset, Regex: tagRegex("?:", ctx, endline), Tag: true})
		return nil
	}
	group, err := b.groupName(name, tok.Offset)
	if err != nil {
		return err
	}
	if _, seen := b.groups[name]; seen {
		if !b.advCaptures {
			return buildErrorf(tok.Offset, ErrDuplicateTag, name,
				"duplicated tag name '%s' at character %d",
				name,
				tok.Offset,
			)
		}
		rx := `\k<` + group + `>`
		if ctx == ctxBoth {
			rx = `\s*` + rx
		}
		b.tags[idx] = name
		b.emit(Fragment{
			Offset:  tok.Offset,
			Regex:   rx,
			RCount:  1,
			Name:    name,
			Tag:     true,
			BackRef: true,
		})
		return nil
	}
	b.groups[name] = group
	b.owners[group] = name
	b.tags[idx] = name
	b.emit(Fragment{
		Offset: tok.Offset,
		Regex:  tagRegex("?<"+group+">", ctx, endline),
		Name:   name,
		Tag:    true,
	})
	return nil
}

// groupName maps a tag name to a valid regex group name. Distinct tag
// names must not end up in the same group.
func (b *fragBuilder) groupName(name string, off int) (string, error) {
	group := strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}
		return r
	}, name)
	if r, _ := utf8.DecodeRuneInString(group); unicode.IsDigit(r) {
		group = "_" + group
	}
	if owner, ok := b.owners[group]; ok && owner != name {
		return "", buildErrorf(off, ErrDuplicateTag, name,
			"tag name '%s' at character %d collides with tag '%s'",
			name,
			off,
			owner,
		)
	}
	return group, nil
}

// tagRegex returns the regex of a tag. capture is "?:" for unnamed tags or
// "?<group>". Tags are lazy unless an unnamed tag ends a line. A named group
// always takes part in a match, if need be with the empty string, so that
// back references to it can match.
func tagRegex(capture string, ctx tagContext, endline bool) string {
	lazy := "?"
	if capture == "?:" && endline {
		lazy = ""
	}
	optional := func(rx string) string {
		if capture == "?:" {
			return "(?:" + rx + ")?"
		}
		return "(?:" + rx + "|(" + capture + "))"
	}
	switch ctx {
	case ctxRight:
		return "(" + capture + ".*" + lazy + `)(?<!\s)`
	case ctxBoth:
		return optional(`\s*(?!\s)(` + capture + ".+" + lazy + `)(?<!\s)`)
	case ctxNewline:
		return optional(`(` + capture + ".+" + lazy + `)(?<!\n)`)
	}
	return "(" + capture + ".*" + lazy + ")"
}
