package texpect

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func ExampleReadExpectation() {
	exp, err := ReadExpectation("example", strings.NewReader(`# greeting
% +norm-ws
> Hello <name>,
>   nice to meet you`))
	if err != nil {
		fmt.Println(err)
		return
	}
	x, err := exp.Build(NewParser(DefaultConfig()))
	if err != nil {
		fmt.Println(err)
		return
	}
	caps, ok := x.Captures("Hello John, nice to meet you")
	fmt.Println(exp.Line, ok, caps["name"])
	// Output:
	// 3 true John
}

func TestOpenExpectation(t *testing.T) {
	exp, err := OpenExpectation(filepath.Join("testdata", "status.texp"))
	if err != nil {
		t.Fatal(err)
	}
	if exp.Template != "Service <name> is up\n\n  since <...>" {
		t.Errorf("wrong template %q", exp.Template)
	}
	if exp.Line != 4 {
		t.Errorf("template starts in line %d", exp.Line)
	}
	cfg, err := exp.Config(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.NormWS || cfg.MinRCount != 3 {
		t.Errorf("options not applied: %+v", cfg)
	}
	p := NewParser(DefaultConfig())
	x, err := exp.Build(p)
	if err != nil {
		t.Fatal(err)
	}
	if !x.Match("Service foo is up since 3 days\n") {
		t.Error("status does not match")
	}
	if p.NormWS {
		t.Error("expectation options leaked into parser")
	}
}

func TestReadExpectation_errors(t *testing.T) {
	tests := []struct {
		text string
		line int
	}{
		{"", 0},
		{"# only comments", 1},
		{"> a\n\n> b", 2},
		{"> a\n% +norm-ws", 2},
		{"x a", 1},
	}
	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			_, err := ReadExpectation(t.Name(), strings.NewReader(test.text))
			var lerr LineError
			if !errors.As(err, &lerr) {
				t.Fatalf("expected line error, got %v", err)
			}
			if lerr.Line != test.line {
				t.Errorf("error in line %d, want %d: %s", lerr.Line, test.line, err)
			}
		})
	}
}

func TestExpectation_Build_error(t *testing.T) {
	exp, err := ReadExpectation("dup", strings.NewReader("# dups\n> <a>\n> <b><c>"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = exp.Build(NewParser(DefaultConfig()))
	var lerr LineError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected line error, got %v", err)
	}
	if lerr.Line != 3 {
		t.Errorf("error in line %d", lerr.Line)
	}
	if !errors.Is(err, ErrAdjacentTags) {
		t.Errorf("wrong error kind: %s", err)
	}
}
