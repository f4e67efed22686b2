package texpect

import (
	"cmp"
	"slices"
	"strings"
)

// Input is text to be typed into an interactive program once the program's
// output ends with Prefix. PrefixRegex matches Prefix the way the template
// would.
type Input struct {
	Prefix      string
	PrefixRegex string
	Value       string
}

// Event kinds are ordered. For events at the same offset an input is
// processed before the prefix that starts there and a reset after it.
type inputEventKind int

const (
	evInput inputEventKind = iota
	evPrefix
	evReset
	evSyncLost
)

type inputEvent struct {
	offset int
	kind   inputEventKind
	text   string // literal text of prefixes or the value of inputs
	regex  string
	rcount int
}

type inputEvents []inputEvent

func (evs *inputEvents) prefix(off int, text, rx string, rcount int) {
	*evs = append(*evs, inputEvent{offset: off, kind: evPrefix, text: text, regex: rx, rcount: rcount})
}

func (evs *inputEvents) reset(off int) {
	*evs = append(*evs, inputEvent{offset: off, kind: evReset})
}

func (evs *inputEvents) syncLost(off int) {
	*evs = append(*evs, inputEvent{offset: off, kind: evSyncLost})
}

func (evs *inputEvents) input(off int, value string) {
	*evs = append(*evs, inputEvent{offset: off, kind: evInput, text: value})
}

// inputs computes the prefix of each input from the fragments that precede
// it. Prefixes never reach back across a capture tag or the end of an
// earlier input line. If a capture tag was passed since the last input, the
// prefix must have at least min characters to resynchronize.
func (evs inputEvents) inputs(min, max int) ([]Input, error) {
	slices.SortStableFunc(evs, func(a, b inputEvent) int {
		if c := cmp.Compare(a.offset, b.offset); c != 0 {
			return c
		}
		return cmp.Compare(a.kind, b.kind)
	})
	var (
		res      []Input
		partial  []inputEvent
		syncLost bool
	)
	for _, ev := range evs {
		switch ev.kind {
		case evPrefix:
			partial = append(partial, ev)
		case evReset:
			partial = partial[:0]
		case evSyncLost:
			syncLost = true
		case evInput:
			in, rcount := inputPrefix(partial, max)
			if rcount < min && syncLost {
				return nil, buildErrorf(ev.offset, ErrInputPrefix, "",
					"too few characters (%d) before the input tag at character %d",
					rcount,
					ev.offset,
				)
			}
			in.Value = ev.text
			res = append(res, in)
			syncLost = false
		}
	}
	return res, nil
}

func inputPrefix(partial []inputEvent, max int) (in Input, rcount int) {
	i := len(partial)
	for i > 0 && rcount < max {
		i--
		rcount += partial[i].rcount
	}
	var txt, rx strings.Builder
	for _, ev := range partial[i:] {
		txt.WriteString(ev.text)
		rx.WriteString(ev.regex)
	}
	in.Prefix = txt.String()
	in.PrefixRegex = rx.String()
	return in, rcount
}
