package main

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/fractalqb/texpect"
)

func init() {
	checkCmd.Run = checkFiles
	addExpFlag(&checkCmd.Command)
	checkCmd.Flags().BoolVar(&checkCmd.enhance, "enhance-diff", false,
		"Show captures and make whitespace visible in reports")
	rootCmd.AddCommand(&checkCmd.Command)
}

var checkCmd = struct {
	cobra.Command
	enhance bool
}{
	Command: cobra.Command{
		Use:   "check [flags] [subject...]",
		Short: "Check subject files or stdin against an expectation file",
	},
}

func checkFiles(cmd *cobra.Command, files []string) {
	p := parser()
	x := expected(p)
	report := texpect.Report{EnhanceDiff: checkCmd.enhance || x.Config().EnhanceDiff}
	ok := true
	if len(files) == 0 {
		ok = checkRd(x, report, "stdin", os.Stdin)
	}
	for _, f := range files {
		ok = checkFile(x, report, f) && ok
	}
	if !ok {
		os.Exit(1)
	}
}

func checkFile(x *texpect.Expected, report texpect.Report, subj string) bool {
	sr, err := os.Open(subj)
	if err != nil {
		log.Fatal(err)
	}
	defer sr.Close()
	return checkRd(x, report, subj, sr)
}

func checkRd(x *texpect.Expected, report texpect.Report, sname string, subj io.Reader) bool {
	data, err := io.ReadAll(subj)
	if err != nil {
		log.Println(err)
		return false
	}
	got := texpect.NormalizeNewlines(string(data))
	if !x.Match(got) {
		log.Printf("%s does not match %s\n", sname, rootCmd.expfile)
		if err := report.Write(os.Stdout, x, got); err != nil {
			log.Println(err)
		}
		return false
	}
	log.Printf("%s matches %s\n", sname, rootCmd.expfile)
	return true
}
