package texpect

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/google/go-cmp/cmp"
)

func ExampleExpected_Captures() {
	x, err := NewParser(DefaultConfig()).Build("Disk usage: <usage> of <total>\nLast check <...> ago")
	if err != nil {
		fmt.Println(err)
		return
	}
	caps, ok := x.Captures("Disk usage: 120GB of 1TB\nLast check 5 minutes ago\n")
	fmt.Println(ok, caps["usage"], caps["total"])
	// Output:
	// true 120GB 1TB
}

func TestExpected_Match(t *testing.T) {
	tests := []struct {
		opts, tmpl, got string
		match           bool
	}{
		{"", "", "", true},
		{"", "", "\n\n", true},
		{"", "", " ", false},
		{"", "hello world", "hello world", true},
		{"", "hello world", "hello world\n\n", true},
		{"", "hello world\n\n", "hello world", true},
		{"", "hello world", "hello  world", false},
		{"", "hello world", "hello world ", false},
		{"", "a.b*c", "a.b*c", true},
		{"", "a.b*c", "aXbbc", false},
		{"", "(x)[y]{z}", "(x)[y]{z}", true},
		{"", "aa<foo>bb<bar>cc", "aaXYZbbQcc", true},
		{"", "aa<foo>bb<bar>cc", "aabbcc", true},
		{"", "aa<foo>bb<bar>cc", "aaXYZccbb", false},
		{"", "first <...> last", "first a\nb\nc last", true},
		{"", "a<...>", "a\nb\nc\n", true},
		{"-tags", "a<foo>b", "a<foo>b", true},
		{"-tags", "a<foo>b", "axb", false},
		{"+norm-ws", "a  b\n\nc", "a b c", true},
		{"+norm-ws", "a  b\n\nc", "a\tb\n c  \n", true},
		{"+norm-ws", "a b", "ab", false},
		{"+norm-ws", "a\n<foo>\tb", "a  b", true},
		{"+norm-ws", "a\n<foo>\tb", "a  \n 123\n\n b", true},
		{"+norm-ws", "a\n<foo>\tb", "a b", false},
		{"+norm-ws", "\n  <a>A \n\nB <bc> C\n<c>", " A B  C ", true},
		{"+adv-captures", "<a> and <a>", "x and x", true},
		{"+adv-captures", "<a> and <a>", "x and y", false},
		{"+adv-captures +norm-ws", "<a> = <b>\n<b> = <a>", "1 = 2\n2 = 1", true},
		{"+adv-captures +norm-ws", "<a> = <b>\n<b> = <a>", "1 = 2\n2 = 2", false},
		{"+adv-captures +norm-ws", "a <x> b <x> c", "a  b  c", true},
		{"+adv-captures +norm-ws", "a <x> b <x> c", "a 1 b 1 c", true},
		{"+adv-captures +norm-ws", "a <x> b <x> c", "a 1 b 2 c", false},
		{"+adv-captures +norm-ws", "a <x> b <x> c", "a 1 b  c", false},
	}
	for _, test := range tests {
		t.Run(test.opts+" "+test.tmpl, func(t *testing.T) {
			x, err := testParser(test.opts).Build(test.tmpl)
			if err != nil {
				t.Fatal(err)
			}
			if m := x.Match(test.got); m != test.match {
				t.Errorf("match %q = %t, want %t", test.got, m, test.match)
			}
			if _, ok := x.Captures(test.got); ok != test.match {
				t.Errorf("captures of %q ok = %t, want %t", test.got, ok, test.match)
			}
		})
	}
}

func TestExpected_Captures(t *testing.T) {
	tests := []struct {
		opts, tmpl, got string
		want            map[string]string
	}{
		{"", "aa<foo>bb<bar>cc", "aaXYZbbQcc", map[string]string{"foo": "XYZ", "bar": "Q"}},
		{"", "<a-b>:<c.d>", "1:2", map[string]string{"a-b": "1", "c.d": "2"}},
		{"", "x=<1st>", "x=y\n", map[string]string{"1st": "y"}},
		{"+norm-ws", "a\n<foo>\tb", "a  \n 123\n\n b", map[string]string{"foo": "123"}},
		{"+norm-ws", "a\n<foo>\tb", "a  b", map[string]string{"foo": ""}},
		{"+norm-ws", "\n  <a>A \n\nB <bc> C\n<c>", " A B  C ",
			map[string]string{"a": "", "bc": "", "c": ""}},
		{"+adv-captures", "<a> and <a>", "x and x", map[string]string{"a": "x"}},
		{"+adv-captures +norm-ws", "a <x> b <x> c", "a  b  c", map[string]string{"x": ""}},
	}
	for _, test := range tests {
		t.Run(test.opts+" "+test.tmpl, func(t *testing.T) {
			x, err := testParser(test.opts).Build(test.tmpl)
			if err != nil {
				t.Fatal(err)
			}
			caps, ok := x.Captures(test.got)
			if !ok {
				t.Fatalf("%q does not match", test.got)
			}
			if diff := cmp.Diff(test.want, caps); diff != "" {
				t.Errorf("captures mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Templates without tags and literal whitespace must match exactly the
// template modulo trailing newlines.
func TestExpected_literalRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewPCG(4711, 42))
	const alphabet = "ab .*\\()[]{}?+^$|#\t\n<>ä"
	letters := []rune(alphabet)
	rndText := func() string {
		var sb strings.Builder
		for n := rnd.IntN(24); n > 0; n-- {
			sb.WriteRune(letters[rnd.IntN(len(letters))])
		}
		return sb.String()
	}
	p := testParser("-tags")
	for range 200 {
		tmpl := rndText()
		x, err := p.Build(tmpl)
		if err != nil {
			t.Fatalf("%q: %s", tmpl, err)
		}
		if !x.Match(tmpl) {
			t.Errorf("%q does not match itself", tmpl)
		}
		if !x.Match(tmpl + "\n") {
			t.Errorf("%q does not match itself with extra newline", tmpl)
		}
		got := rndText()
		want := strings.TrimRight(got, "\n") == strings.TrimRight(tmpl, "\n")
		if m := x.Match(got); m != want {
			t.Errorf("%q matches %q: %t, want %t", tmpl, got, m, want)
		}
	}
}

// Linear matching must agree with matching the complete regex for
// templates with literal whitespace.
func TestExpected_linearAgreesWithRegex(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))
	words := []string{"a", "b", "ab", " ", "\n", "<x>", "<y>", "<...>", "-"}
	p := testParser("")
	for range 300 {
		var tmpl strings.Builder
		prevTag := false
		for n := 1 + rnd.IntN(6); n > 0; n-- {
			w := words[rnd.IntN(len(words))]
			isTag := strings.HasPrefix(w, "<")
			if isTag && prevTag {
				w = "-"
				isTag = false
			}
			if isTag && strings.Contains(tmpl.String(), w) && w != "<...>" {
				w = "<...>"
			}
			tmpl.WriteString(w)
			prevTag = isTag
		}
		x, err := p.Build(tmpl.String())
		if err != nil {
			t.Fatalf("%q: %s", tmpl.String(), err)
		}
		var got strings.Builder
		for n := rnd.IntN(8); n > 0; n-- {
			got.WriteString(words[rnd.IntN(5)])
		}
		_, rx := x.Captures(got.String())
		if lin := x.Match(got.String()); lin != rx {
			t.Errorf("%q vs %q: linear %t, regex %t", tmpl.String(), got.String(), lin, rx)
		}
	}
}

func TestExpected_Captures_noMatch(t *testing.T) {
	got := strings.Repeat("a", 400)
	t.Run("linear", func(t *testing.T) {
		x, err := testParser("match-timeout=0").Build("a<p>a<q>a<r>a<s>a<u>b")
		if err != nil {
			t.Fatal(err)
		}
		start := time.Now()
		if caps, ok := x.Captures(got); ok || caps != nil {
			t.Errorf("captures %v for non-matching output", caps)
		}
		if d := time.Since(start); d > 2*time.Second {
			t.Errorf("captures took %s", d)
		}
	})
	t.Run("back reference", func(t *testing.T) {
		x, err := testParser("+adv-captures match-timeout=0.2").Build("a<p>a<q>a<r>a<s>a<p>b")
		if err != nil {
			t.Fatal(err)
		}
		start := time.Now()
		if x.Match(got) {
			t.Error("match of non-matching output")
		}
		if _, ok := x.Captures(got); ok {
			t.Error("captures of non-matching output")
		}
		if d := time.Since(start); d > 10*time.Second {
			t.Errorf("matching took %s", d)
		}
	})
}

func TestExpected_captures_unset(t *testing.T) {
	x, err := testParser("").Build("<a> <b>")
	if err != nil {
		t.Fatal(err)
	}
	rx := regexp2.MustCompile(`(?:(?<a>x))?(?<b>y*)z`, rxOptions)
	m, err := rx.FindStringMatch("z")
	if err != nil || m == nil {
		t.Fatalf("no match: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"b": ""}, x.captures(m)); diff != "" {
		t.Errorf("captures mismatch (-want +got):\n%s", diff)
	}
}

// Every template that builds matches its own text, and all its named tags
// are captured.
func TestExpected_tagRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewPCG(7, 13))
	words := []string{"a", "b", "ab", ".", " ", "  ", "\t", "\n", "\n\n", "<x>", "<y>", "<z>", "<...>"}
	for _, opts := range []string{"", "+norm-ws"} {
		p := testParser(opts)
		for range 500 {
			var tmpl strings.Builder
			used := make(map[string]bool)
			prevTag := false
			for n := 1 + rnd.IntN(8); n > 0; n-- {
				w := words[rnd.IntN(len(words))]
				isTag := strings.HasPrefix(w, "<")
				if isTag && (prevTag || used[w]) {
					w, isTag = "a", false
				}
				used[w] = isTag && w != "<...>"
				tmpl.WriteString(w)
				prevTag = isTag
			}
			x, err := p.Build(tmpl.String())
			if errors.Is(err, ErrAdjacentTags) {
				continue
			} else if err != nil {
				t.Fatalf("%s %q: %s", opts, tmpl.String(), err)
			}
			if !x.Match(tmpl.String()) {
				t.Errorf("%s %q does not match itself", opts, tmpl.String())
				continue
			}
			_, caps := x.Recover(tmpl.String())
			for _, name := range x.Tags() {
				if _, ok := caps[name]; name != "" && !ok {
					t.Errorf("%s %q: tag '%s' not captured", opts, tmpl.String(), name)
				}
			}
		}
	}
}
