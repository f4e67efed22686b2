package texpect

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Line tags of expectation files
const (
	TagComment  = '#'
	TagOptions  = '%'
	TagTemplate = '>'
)

// Expectation is an expected output template read from an expectation
// file together with its options. Expectation files look like this:
//
//	# comment lines start with '#' anywhere in the file
//	% +norm-ws rm="\r"
//	> template lines start with '>', one space after it is dropped
//	>
//	> the line above is empty
//
// Option lines must come before the first template line.
type Expectation struct {
	Source   string
	Options  []string
	Template string
	// Line of the first template line
	Line int
}

func ReadExpectation(name string, r io.Reader) (*Expectation, error) {
	if r == nil {
		return nil, errors.New("nil reader")
	}
	er := expReader{scn: bufio.NewScanner(r)}
	exp := &Expectation{Source: name}
	var tmpl []string
	for er.scan() {
		line := er.scn.Text()
		if !utf8.ValidString(line) {
			return nil, er.lineErrorf(name, "invalid UTF-8 encoding")
		}
		if line == "" {
			return nil, er.lineErrorf(name, "empty line, use '%c' for empty template lines", TagTemplate)
		}
		switch line[0] {
		case TagComment:
		case TagOptions:
			if tmpl != nil {
				return nil, er.lineErrorf(name, "option line after template lines")
			}
			exp.Options = append(exp.Options, strings.TrimSpace(line[1:]))
		case TagTemplate:
			if tmpl == nil {
				exp.Line = er.lno
			}
			line = line[1:]
			tmpl = append(tmpl, strings.TrimPrefix(line, " "))
		default:
			return nil, er.lineErrorf(name, "invalid line tag '%c'", line[0])
		}
	}
	if err := er.scn.Err(); err != nil {
		return nil, LineError{Source: name, Line: er.lno, err: err}
	}
	if tmpl == nil {
		return nil, er.lineErrorf(name, "no template line")
	}
	exp.Template = strings.Join(tmpl, "\n")
	return exp, nil
}

func OpenExpectation(file string) (*Expectation, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ReadExpectation(file, r)
}

// Config returns cfg with the expectation's options applied.
func (e *Expectation) Config(cfg Config) (Config, error) {
	cfg.Remove = append([]string(nil), cfg.Remove...)
	for _, opts := range e.Options {
		if err := cfg.ApplyOptions(opts); err != nil {
			return cfg, fmt.Errorf("%s: %w", e.Source, err)
		}
	}
	return cfg, nil
}

// Build builds the template with the parser's configuration overlaid by the
// expectation's options.
func (e *Expectation) Build(p *Parser) (*Expected, error) {
	cfg, err := e.Config(p.Config)
	if err != nil {
		return nil, err
	}
	ep := *p
	ep.Config = cfg
	x, err := ep.Build(e.Template)
	var berr *BuildError
	if errors.As(err, &berr) {
		return nil, LineError{
			Source: e.Source,
			Line:   e.Line + strings.Count(e.Template[:min(berr.Offset, len(e.Template))], "\n"),
			err:    err,
		}
	}
	return x, err
}

type expReader struct {
	scn *bufio.Scanner
	lno int
}

func (er *expReader) scan() bool {
	if er.scn.Scan() {
		er.lno++
		return true
	}
	return false
}

func (er *expReader) lineErrorf(src, format string, a ...any) error {
	return LineError{
		Source: src,
		Line:   er.lno,
		err:    fmt.Errorf(format, a...),
	}
}
