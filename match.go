package texpect

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// matcher is the strategy an Expected uses to match and recover outputs.
type matcher interface {
	name() string
	match(x *Expected, got []rune) (ok bool, caps map[string]string, err error)
	recover(x *Expected, got []rune) (string, map[string]string)
}

// regexMatcher matches with the complete template regex. It is needed when
// tags refer back to earlier captures.
type regexMatcher struct{}

func (regexMatcher) name() string { return "regex" }

func (regexMatcher) match(x *Expected, got []rune) (bool, map[string]string, error) {
	m, err := x.full.FindRunesMatch(got)
	if err != nil || m == nil {
		return false, nil, err
	}
	return true, x.captures(m), nil
}

func (rm regexMatcher) recover(x *Expected, got []rune) (string, map[string]string) {
	ok, caps, err := rm.match(x, got)
	switch {
	case err != nil:
		x.log.Warn("matching expected output failed", "error", err)
	case ok:
		return string(got), caps
	}
	if x.cfg.RecoverTimeout <= 0 {
		return x.template, map[string]string{}
	}
	return x.recoverIncremental(got)
}

// linearMatcher searches the literal spans between tags one after the
// other. Tags take whatever lies between two found spans.
type linearMatcher struct {
	spans []linearSpan
}

type linearSpan struct {
	rx *regexp2.Regexp
	// Template offset where reconstruction continues if the span is not
	// found: the tag before the span or the span itself.
	resume int
	// Name of the tag right before the span, "" if none or unnamed
	tag string
}

func newLinearMatcher(x *Expected) (*linearMatcher, error) {
	lm := new(linearMatcher)
	prev := 0
	addSpan := func(end int) error {
		if end <= prev {
			return nil
		}
		rx, err := x.cache.Compile(joinRegex(x.frags[prev:end]), 0)
		if err != nil {
			return err
		}
		sp := linearSpan{rx: rx, resume: x.frags[prev].Offset}
		if prev > 0 {
			before := x.frags[prev-1]
			sp.resume = before.Offset
			sp.tag = before.Name
		}
		lm.spans = append(lm.spans, sp)
		return nil
	}
	for i, f := range x.frags {
		if f.Tag {
			if err := addSpan(i); err != nil {
				return nil, err
			}
			prev = i + 1
		}
	}
	if err := addSpan(len(x.frags)); err != nil {
		return nil, err
	}
	return lm, nil
}

func (*linearMatcher) name() string { return "linear" }

func (lm *linearMatcher) match(x *Expected, got []rune) (bool, map[string]string, error) {
	_, caps, ok, err := lm.run(x, got)
	if !ok {
		return false, nil, err
	}
	return true, caps, err
}

func (lm *linearMatcher) recover(x *Expected, got []rune) (string, map[string]string) {
	rec, caps, ok, err := lm.run(x, got)
	if err != nil {
		x.log.Warn("matching expected output failed", "error", err)
	}
	switch {
	case ok:
		// spans do not see the whitespace rules of tags
		if m, err := x.full.FindRunesMatch(got); err == nil && m != nil {
			caps = x.captures(m)
		}
	case x.cfg.RecoverTimeout <= 0:
		return x.template, map[string]string{}
	}
	return rec, caps
}

// run returns got and the captures on success. Otherwise it returns got up
// to the last span found followed by the template from where the missing
// span's tag starts, and the captures collected until then.
func (lm *linearMatcher) run(x *Expected, got []rune) (string, map[string]string, bool, error) {
	caps := make(map[string]string)
	pos := 0
	for _, sp := range lm.spans {
		m, err := sp.rx.FindRunesMatchStartingAt(got, pos)
		if err != nil || m == nil {
			var sb strings.Builder
			sb.WriteString(string(got[:pos]))
			sb.WriteString(x.template[sp.resume:])
			return sb.String(), caps, false, err
		}
		if sp.tag != "" {
			caps[sp.tag] = string(got[pos:m.Index])
		}
		pos = m.Index + m.Length
	}
	return string(got), caps, true, nil
}
