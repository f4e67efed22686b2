// Package texpecting supports the use of texpect in your Go tests.
//
// Example reads the expectation from testdata/TestStatus.texp:
//
//	func TestStatus(t *testing.T) {
//		var out bytes.Buffer
//		printStatus(&out)
//		Error(t, "", &out)
//	}
//
// Expectation:
//
//	% +norm-ws
//	> Disk usage: <usage> of <total>
//	> Last check <...> ago
package texpecting

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/fractalqb/texpect"
)

// When this environment variable is set to a regexp and the name of the
// current test matches, calls to Error or Fatal will record the subj as new
// expectation instead of comparing it. E.g.
//
//	TEXPECTING_RECORD=TestRecording go test .
const RecordEnv = "TEXPECTING_RECORD"

// GoTestdataDir is the name of Go's default directory for testdata (see go help
// test).
const GoTestdataDir = "testdata"

func Error(t *testing.T, hint string, subj io.Reader) error {
	return defaultConfig.Error(t, hint, subj)
}

func Fatal(t *testing.T, hint string, subj io.Reader) {
	defaultConfig.Fatal(t, hint, subj)
}

func Record(t *testing.T, hint string, subj io.Reader) {
	defaultConfig.Record(t, hint, subj)
}

type ExpRepo struct {
	Dir    string
	Suffix string
}

const (
	StdSuffix = ".texp"
	NoSuffix  = "\x00"
)

func (er ExpRepo) Filename(t *testing.T, hint string) string {
	suffix := er.Suffix
	switch suffix {
	case "":
		suffix = StdSuffix
	case NoSuffix:
		suffix = ""
	}
	if hint == "" {
		return filepath.Join(er.Dir, t.Name()+suffix)
	}
	if suffix == "" || strings.HasSuffix(hint, suffix) {
		return filepath.Join(er.Dir, t.Name(), hint)
	}
	return filepath.Join(er.Dir, t.Name(), hint+suffix)
}

type Config struct {
	ExpFileName func(t *testing.T, hint string) string
	// Base configuration, expectation files may override options
	Parser          texpect.Parser
	Report          texpect.Report
	RecordOverwrite bool
	// Keep the subject in a file next to the expectation if it does not
	// match
	KeepSubject bool
}

var defaultConfig = Config{
	ExpFileName: ExpRepo{Dir: GoTestdataDir}.Filename,
	Parser:      texpect.Parser{Config: texpect.DefaultConfig()},
	Report:      texpect.Report{EnhanceDiff: true},
	KeepSubject: true,
}

func (cfg Config) Error(t *testing.T, hint string, subj io.Reader) error {
	if recordTest(t) {
		cfg.Record(t, hint, subj)
		return nil
	} else {
		err := cfg.compare(t, hint, subj)
		if err != nil {
			t.Error(err)
		}
		return err
	}
}

func (cfg Config) Fatal(t *testing.T, hint string, subj io.Reader) {
	if recordTest(t) {
		cfg.Record(t, hint, subj)
	} else {
		err := cfg.compare(t, hint, subj)
		if err != nil {
			t.Fatal(err)
		}
	}
}

func recordTest(t *testing.T) bool {
	rec := os.Getenv(RecordEnv)
	if rec == "" {
		return false
	}
	r, err := regexp.Compile(rec)
	if err != nil {
		t.Logf("texpecting: invalid regexp '%s' in %s, not recording: %s", rec, RecordEnv, err)
		return false
	}
	return r.MatchString(t.Name())
}

// MismatchError is returned when a subject does not match its expectation.
type MismatchError struct {
	File   string
	Report string
}

func (e MismatchError) Error() string {
	return fmt.Sprintf("subject does not match %s:\n%s", e.File, e.Report)
}

func (cfg *Config) compare(t *testing.T, hint string, subj io.Reader) (err error) {
	expfile := cfg.ExpFileName(t, hint)
	if _, err := os.Stat(expfile); os.IsNotExist(err) {
		t.Logf("to record an expectation file run '%[1]s=%[2]s go test -run %[2]s'",
			RecordEnv,
			t.Name(),
		)
		return fmt.Errorf("expectation file %s does not exists", expfile)
	}
	exp, err := texpect.OpenExpectation(expfile)
	if err != nil {
		return err
	}
	x, err := exp.Build(&cfg.Parser)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(subj)
	if err != nil {
		return err
	}
	got := texpect.NormalizeNewlines(string(data))
	if x.Match(got) {
		return nil
	}
	var report strings.Builder
	if err := cfg.Report.Write(&report, x, got); err != nil {
		return err
	}
	if cfg.KeepSubject {
		if kept, err := keepSubject(expfile, data); err != nil {
			t.Logf("texpecting: cannot keep subject: %s", err)
		} else {
			t.Logf("texpecting: kept subject in %s", kept)
		}
	}
	return MismatchError{File: expfile, Report: report.String()}
}

func keepSubject(expfile string, data []byte) (string, error) {
	keepfile := strings.TrimSuffix(expfile, StdSuffix)
	k, err := os.CreateTemp(filepath.Dir(keepfile), filepath.Base(keepfile)+".")
	if err != nil {
		return "", err
	}
	defer k.Close()
	_, err = k.Write(data)
	return k.Name(), err
}

func (cfg Config) Record(t *testing.T, hint string, subj io.Reader) {
	expfile := cfg.ExpFileName(t, hint)
	if _, err := os.Stat(expfile); !os.IsNotExist(err) && !cfg.RecordOverwrite {
		t.Fatalf("TestRecord: expectation file '%s' already exists", expfile)
	}
	dir := filepath.Dir(expfile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err = os.MkdirAll(dir, 0777); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if err := (texpect.Prepare{DetectTags: cfg.Parser.Tags}).Text(&buf, subj); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(expfile, buf.Bytes(), 0666); err != nil {
		t.Fatal(err)
	}
	t.Errorf("texpect test-recorder wrote: %s", expfile)
}
