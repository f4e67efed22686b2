package texpect

import (
	"fmt"
	"strings"
	"time"
)

// recoverIncremental finds the longest prefix and the longest suffix of the
// fragments that match got. The part of got between them is replaced by
// the template. Only regions anchored on at least MinRCount literal
// characters count. Half of RecoverTimeout goes to each side, the right
// side gets what the left side did not use.
func (x *Expected) recoverIncremental(got []rune) (string, map[string]string) {
	start := time.Now()
	budget := x.cfg.RecoverTimeout
	frags := x.frags
	n := len(frags)
	matches := func(pattern string) (bool, error) {
		rx, err := x.cache.Compile(pattern, budget)
		if err != nil {
			return false, err
		}
		m, err := rx.FindRunesMatch(got)
		if err != nil {
			x.log.Debug("recover match failed", "error", err)
			return false, nil
		}
		return m != nil, nil
	}

	var left strings.Builder
	left.WriteString(frags[0].Regex)
	bestLeft, accum := 0, 0
	for i := 1; i < n; i++ {
		if time.Since(start) >= budget/2 {
			x.log.Debug("recover left scan timed out", "at", i)
			break
		}
		left.WriteString(frags[i].Regex)
		if frags[i].RCount == 0 {
			accum = 0
			continue
		}
		accum += frags[i].RCount
		if ok, _ := matches(left.String()); !ok {
			break
		}
		if accum >= x.cfg.MinRCount {
			bestLeft = i
		}
	}

	leftRx := joinRegex(frags[:bestLeft+1])
	buffer := x.bufferGroup()
	bufferRx := "(?<" + buffer + ">.*?)"
	suffix := ""
	bestRight := n - 1
	accum = 0
	for i := n - 1; i > bestLeft; i-- {
		if time.Since(start) >= budget {
			x.log.Debug("recover right scan timed out", "at", i)
			break
		}
		suffix = frags[i].Regex + suffix
		if frags[i].RCount == 0 {
			accum = 0
			continue
		}
		accum += frags[i].RCount
		ok, err := matches(leftRx + bufferRx + suffix)
		if err != nil {
			// back reference to a group defined further left
			accum -= frags[i].RCount
			continue
		}
		if !ok {
			break
		}
		if accum >= x.cfg.MinRCount {
			bestRight = i
		}
	}
	rx, err := x.cache.Compile(leftRx+bufferRx+joinRegex(frags[bestRight:]), budget)
	if err != nil {
		x.log.Warn("cannot compile recovered regex", "error", err)
		return x.template, map[string]string{}
	}
	m, err := rx.FindRunesMatch(got)
	if err != nil || m == nil {
		x.log.Warn("recovered regex does not match", "error", err)
		return x.template, map[string]string{}
	}
	buf := m.GroupByName(buffer)
	var sb strings.Builder
	sb.WriteString(string(got[:buf.Index]))
	sb.WriteString(x.template[frags[bestLeft+1].Offset:frags[bestRight].Offset])
	sb.WriteString(string(got[buf.Index+buf.Length:]))
	x.log.Debug("recovered expected output",
		"left", bestLeft,
		"right", bestRight,
		"took", time.Since(start),
	)
	return sb.String(), x.captures(m)
}

// bufferGroup returns a group name not used by any tag.
func (x *Expected) bufferGroup() string {
	for i := 0; ; i++ {
		name := fmt.Sprintf("buffer%06d", i)
		if _, used := x.groups[name]; !used {
			return name
		}
	}
}
