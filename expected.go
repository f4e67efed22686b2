package texpect

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/dlclark/regexp2"
)

// Parser builds Expected values from templates.
type Parser struct {
	Config
	// Shared by all Expected built with this parser. May be nil.
	Cache *RxCache
	// Defaults to slog.Default()
	Logger *slog.Logger
}

func NewParser(cfg Config) *Parser {
	return &Parser{Config: cfg, Cache: new(RxCache)}
}

// Expected is a compiled expected output template.
type Expected struct {
	template string
	frags    []Fragment
	tags     map[int]string
	inputs   []Input
	cfg      Config
	groups   map[string]string // regex group name → tag name
	advCaps  bool
	full     *regexp2.Regexp
	match    matcher
	cache    *RxCache
	log      *slog.Logger
}

// Build translates template into an Expected. Remove strings are stripped
// from the template first. Trailing newlines of the template are ignored,
// with NormWS all trailing whitespace is.
func (p *Parser) Build(template string) (*Expected, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	template = p.Strip(template)
	if p.NormWS {
		template = strings.TrimRightFunc(template, func(r rune) bool {
			return r == '\n' || isSpace(r)
		})
	} else {
		template = strings.TrimRight(template, "\n")
	}
	b := newFragBuilder(&p.Config, log)
	if err := b.build(template, p.Tags, p.Input); err != nil {
		return nil, err
	}
	x := &Expected{
		template: template,
		frags:    b.frags,
		tags:     b.tags,
		cfg:      p.Config,
		groups:   make(map[string]string, len(b.owners)),
		cache:    p.Cache,
		log:      log,
	}
	maps.Copy(x.groups, b.owners)
	for _, f := range b.frags {
		x.advCaps = x.advCaps || f.BackRef
	}
	if p.Input {
		var err error
		x.inputs, err = b.events.inputs(p.InputPrefixMin, p.InputPrefixMax)
		if err != nil {
			return nil, err
		}
	}
	full, err := x.cache.Compile(joinRegex(x.frags), p.MatchTimeout)
	if err != nil {
		return nil, buildErrorf(0, ErrRegex, "", "%s: %s", ErrRegex, err)
	}
	x.full = full
	if x.advCaps {
		x.match = regexMatcher{}
	} else if x.match, err = newLinearMatcher(x); err != nil {
		return nil, buildErrorf(0, ErrRegex, "", "%s: %s", ErrRegex, err)
	}
	log.Debug("built expected output",
		"fragments", len(x.frags),
		"tags", len(x.tags),
		"inputs", len(x.inputs),
		"matcher", x.match.name(),
	)
	return x, nil
}

// Template returns the template after applying Remove and trimming.
func (x *Expected) Template() string { return x.template }

func (x *Expected) Config() Config { return x.cfg }

func (x *Expected) Fragments() []Fragment { return slices.Clone(x.frags) }

// Tags maps fragment indices to tag names. Unnamed tags map to "".
func (x *Expected) Tags() map[int]string { return maps.Clone(x.tags) }

func (x *Expected) Inputs() []Input { return slices.Clone(x.inputs) }

// AdvancedCaptures reports if a tag name is used more than once.
func (x *Expected) AdvancedCaptures() bool { return x.advCaps }

// Regex returns the complete regular expression of the template.
func (x *Expected) Regex() string { return x.full.String() }

// Match reports whether got matches the template.
func (x *Expected) Match(got string) bool {
	ok, _, err := x.match.match(x, []rune(x.cfg.Strip(got)))
	if err != nil {
		x.log.Warn("matching expected output failed", "error", err)
		return false
	}
	return ok
}

// Captures returns the text captured by named tags if got matches. The
// complete template regex is only run when the literal parts of the
// template were found in got. The result is nil if got does not match.
func (x *Expected) Captures(got string) (map[string]string, bool) {
	runes := []rune(x.cfg.Strip(got))
	if lm, ok := x.match.(*linearMatcher); ok {
		if _, _, found, err := lm.run(x, runes); !found {
			if err != nil {
				x.log.Warn("matching expected output failed", "error", err)
			}
			return nil, false
		}
	}
	m, err := x.full.FindRunesMatch(runes)
	if err != nil {
		x.log.Warn("matching expected output failed", "error", err)
		return nil, false
	}
	if m == nil {
		return nil, false
	}
	return x.captures(m), true
}

// Recover returns an expected text for got that is as close to got as the
// template allows and the captures found on the way. If got matches, got
// itself is returned. With RecoverTimeout 0 the template and no captures
// are returned for outputs that do not match.
func (x *Expected) Recover(got string) (string, map[string]string) {
	return x.match.recover(x, []rune(x.cfg.Strip(got)))
}

func (x *Expected) captures(m *regexp2.Match) map[string]string {
	res := make(map[string]string)
	for _, g := range m.Groups() {
		name, ok := x.groups[g.Name]
		if !ok {
			continue
		}
		if len(g.Captures) > 0 {
			res[name] = g.String()
		}
	}
	return res
}

func joinRegex(frags []Fragment) string {
	var sb strings.Builder
	for _, f := range frags {
		sb.WriteString(f.Regex)
	}
	return sb.String()
}

func (x *Expected) String() string {
	return fmt.Sprintf("expected(%d fragments, %d tags)", len(x.frags), len(x.tags))
}
