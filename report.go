package texpect

import (
	"bufio"
	"io"
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Report writes a plain text explanation of why an output does not match
// an expected output.
type Report struct {
	// Show captures and make whitespace visible. Recovers the expected
	// output against what was got.
	EnhanceDiff bool
	// Display width of a column in the captures listing, default 36
	CaptureWidth int
}

const HumanLegend = "    $: trailing spaces\n" +
	"    ^n: a blank line    ?: non-printable    ^t: tab\n" +
	"    ^v: vertical tab   ^r: carriage return  ^f: form feed"

func (r Report) Write(w io.Writer, x *Expected, got string) error {
	bw := bufio.NewWriter(w)
	expected := x.Template()
	var caps map[string]string
	if r.EnhanceDiff {
		expected, caps = x.Recover(got)
	}
	expected = trimLastNewlines(expected)
	got = trimLastNewlines(x.cfg.Strip(got))
	if r.EnhanceDiff {
		r.captures(bw, caps)
		bw.WriteString("Notes:\n")
		bw.WriteString(HumanLegend)
		bw.WriteByte('\n')
		expected, got = Human(expected), Human(got)
	}
	if expected != "" {
		bw.WriteString("Expected:\n")
		bw.WriteString(expected)
		bw.WriteByte('\n')
	} else {
		bw.WriteString("Expected nothing\n")
	}
	if got != "" {
		bw.WriteString("Got:\n")
		bw.WriteString(got)
		bw.WriteByte('\n')
	} else {
		bw.WriteString("Got nothing\n")
	}
	return bw.Flush()
}

var newlinesRgx = regexp.MustCompile(`\n+`)

func (r Report) captures(w *bufio.Writer, caps map[string]string) {
	if len(caps) == 0 {
		w.WriteString("Nothing captured.\n")
		return
	}
	colw := r.CaptureWidth
	if colw <= 0 {
		colw = 36
	}
	format := func(k string) string {
		v := Human(newlinesRgx.ReplaceAllString(caps[k], "^n"))
		vw := colw - visibleWidth(k) + 2
		if visibleWidth(v) > vw {
			v = truncateMiddle(v, (vw-5)/2)
		}
		return k + ": " + v
	}
	keys := slices.Sorted(maps.Keys(caps))
	w.WriteString("Captured:\n")
	for i := 0; i < len(keys); i += 2 {
		left := format(keys[i])
		w.WriteString("    ")
		w.WriteString(left)
		if i+1 < len(keys) {
			w.WriteString(strings.Repeat(" ", max(colw-visibleWidth(left), 1)))
			w.WriteString(format(keys[i+1]))
		}
		w.WriteByte('\n')
	}
}

var trailingSpaceRgx = regexp.MustCompile(`(?m) +$`)

// Human makes whitespace and non-printable characters in s visible.
func Human(s string) string {
	s = strings.NewReplacer("\t", "^t", "\v", "^v", "\f", "^f", "\r", "^r").Replace(s)
	s = trailingSpaceRgx.ReplaceAllStringFunc(s, func(sp string) string {
		return strings.Repeat("$", len(sp))
	})
	s = strings.Map(func(r rune) rune {
		if r == '\n' || unicode.IsPrint(r) {
			return r
		}
		return '?'
	}, s)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = "^n"
		}
	}
	return strings.Join(lines, "\n")
}

func trimLastNewlines(s string) string { return strings.TrimRight(s, "\n") }

func visibleWidth(s string) (w int) {
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w += runewidth.StringWidth(g.Str())
	}
	return w
}

// truncateMiddle keeps the first and the last grapheme clusters of s that
// fit into half each, joined by " ... ".
func truncateMiddle(s string, half int) string {
	var segs []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		segs = append(segs, g.Str())
	}
	var head, tail strings.Builder
	hw := 0
	i := 0
	for ; i < len(segs); i++ {
		sw := runewidth.StringWidth(segs[i])
		if hw+sw > half {
			break
		}
		head.WriteString(segs[i])
		hw += sw
	}
	tw, j := 0, len(segs)
	for j > i {
		sw := runewidth.StringWidth(segs[j-1])
		if tw+sw > half {
			break
		}
		tw += sw
		j--
	}
	for _, seg := range segs[j:] {
		tail.WriteString(seg)
	}
	return head.String() + " ... " + tail.String()
}
