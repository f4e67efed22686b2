package texpect

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// Prepare writes expectation files from subject texts.
type Prepare struct {
	// Written as option line if not empty
	Options string
	// Switch off tags if the subject contains text that looks like a tag
	// and Options do not mention tags
	DetectTags bool
}

func (p Prepare) Text(exp io.Writer, subj io.Reader) (err error) {
	var (
		sep   lineSepScanner
		lines []string
		tags  bool
	)
	scn := bufio.NewScanner(subj)
	scn.Split(sep.ScanLines)
	for scn.Scan() {
		line := scn.Text()
		tags = tags || tagRgx.MatchString(line)
		lines = append(lines, line)
	}
	if err = scn.Err(); err != nil {
		return err
	}
	opts := p.Options
	if p.DetectTags && tags && !strings.Contains(opts, "tags") {
		opts = strings.TrimSpace(opts + " -tags")
	}
	w := bufio.NewWriter(exp)
	if opts != "" {
		w.WriteByte(TagOptions)
		w.WriteByte(' ')
		w.WriteString(opts)
		w.WriteByte('\n')
	}
	for _, line := range lines {
		w.WriteByte(TagTemplate)
		if line != "" {
			w.WriteByte(' ')
			w.WriteString(line)
		}
		w.WriteByte('\n')
	}
	return w.Flush()
}

// NormalizeNewlines replaces CRLF line separators with LF.
func NormalizeNewlines(s string) string {
	if !strings.Contains(s, "\r\n") {
		return s
	}
	var (
		sep lineSepScanner
		sb  strings.Builder
	)
	scn := bufio.NewScanner(strings.NewReader(s))
	scn.Buffer(nil, len(s)+1)
	scn.Split(sep.ScanLines)
	for scn.Scan() {
		sb.Write(scn.Bytes())
		sb.Write(bytes.Replace(sep, []byte("\r\n"), []byte("\n"), 1))
	}
	return sb.String()
}

type lineSepScanner []byte

func (lsc *lineSepScanner) ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	// modificated version of bufio.Scan
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		res, cr := dropCR(data[0:i])
		*lsc = data[i-cr : i+1]
		return i + 1, res, nil
	}
	if atEOF {
		res, cr := dropCR(data)
		*lsc = data[len(data)-cr:]
		return len(data), res, nil
	}
	return 0, nil, nil
}

func dropCR(data []byte) ([]byte, int) {
	// modificated version of bufio.dropCR
	if len(data) > 0 && data[len(data)-1] == '\r' {
		return data[0 : len(data)-1], 1
	}
	return data, 0
}
