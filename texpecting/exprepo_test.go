package texpecting

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fractalqb/texpect"
)

func TestFatal_Example(t *testing.T) {
	const subject = `Jun 29 20:58:11.112 INFO  [thread1] create localization dir:test1/test.xCuf/l10n
Jun 29 20:58:11.113 INFO  [thread2] load state from file:test1/test.xCuf/bcplus.json
Jun 29 20:58:11.125 DEBUG [thread1] clearing maps
`
	// Used to create initial expectation: Record(t, "", strings.NewReader(subject))
	// Now here comes the test:
	Fatal(t, "", strings.NewReader(subject))
}

func TestExpRepo_Filename(t *testing.T) {
	repo := ExpRepo{Dir: "testdata"}
	if fn := repo.Filename(t, ""); fn != filepath.Join("testdata", "TestExpRepo_Filename.texp") {
		t.Errorf("wrong file name without hint: %s", fn)
	}
	if fn := repo.Filename(t, "foo"); fn != filepath.Join("testdata", "TestExpRepo_Filename", "foo.texp") {
		t.Errorf("wrong file name with hint: %s", fn)
	}
	if fn := repo.Filename(t, "foo.texp"); fn != filepath.Join("testdata", "TestExpRepo_Filename", "foo.texp") {
		t.Errorf("wrong file name with suffixed hint: %s", fn)
	}
	repo.Suffix = NoSuffix
	if fn := repo.Filename(t, "foo"); fn != filepath.Join("testdata", "TestExpRepo_Filename", "foo") {
		t.Errorf("wrong file name without suffix: %s", fn)
	}
}

func TestConfig_mismatch(t *testing.T) {
	cfg := Config{
		ExpFileName: ExpRepo{Dir: GoTestdataDir}.Filename,
		Parser:      texpect.Parser{Config: texpect.DefaultConfig()},
		Report:      texpect.Report{EnhanceDiff: true},
	}
	t.Run("match", func(t *testing.T) {
		err := cfg.compare(t, "../status", strings.NewReader(
			"Disk usage: 120GB of 1TB\r\nLast check 2 minutes ago\r\n",
		))
		if err != nil {
			t.Error(err)
		}
	})
	t.Run("mismatch", func(t *testing.T) {
		err := cfg.compare(t, "../status", strings.NewReader(
			"Disk usage: 120GB of 2TB\nLast check 2 minutes ago\n",
		))
		var merr MismatchError
		if !errors.As(err, &merr) {
			t.Fatalf("expected mismatch error, got %v", err)
		}
		if !strings.Contains(merr.Report, "Expected:\n") {
			t.Errorf("report without expected text:\n%s", merr.Report)
		}
		if !strings.Contains(merr.Report, "Got:\nDisk usage: 120GB of 2TB") {
			t.Errorf("report without got text:\n%s", merr.Report)
		}
	})
	t.Run("missing file", func(t *testing.T) {
		err := cfg.compare(t, "no-such-file", strings.NewReader(""))
		if err == nil {
			t.Fatal("no error for missing expectation file")
		}
	})
}
