package main

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/fractalqb/texpect"
	"github.com/fractalqb/texpect/texpecting"
)

func init() {
	prepareCmd.Run = prepareFiles
	prepareCmd.Flags().StringVarP(
		&prepareCmd.suffix,
		"suffix", "s",
		prepareCmd.suffix,
		"Set file suffix for created expectation files")
	prepareCmd.Flags().BoolVarP(
		&prepareCmd.force,
		"force", "f",
		prepareCmd.force,
		"Force to overwrite existing expectation files")
	rootCmd.AddCommand(&prepareCmd.Command)
}

var prepareCmd = struct {
	cobra.Command
	suffix string
	force  bool
}{
	Command: cobra.Command{
		Use:   "prepare [flags] [file...]",
		Short: "Prepare basic expectation files from program outputs",
	},
	suffix: texpecting.StdSuffix,
	force:  false,
}

func prepareFiles(cmd *cobra.Command, files []string) {
	if len(files) == 0 {
		prepare(os.Stdin, os.Stdout)
	} else {
		for _, f := range files {
			prepareFile(f)
		}
	}
}

func prepare(rd io.Reader, wr io.Writer) {
	p := texpect.Prepare{
		Options:    rootCmd.options,
		DetectTags: true,
	}
	if err := p.Text(wr, rd); err != nil {
		log.Fatal(err)
	}
}

func prepareFile(name string) {
	expfile := name + prepareCmd.suffix
	if _, err := os.Stat(expfile); !os.IsNotExist(err) {
		if !prepareCmd.force {
			log.Fatalf("%s already exists", expfile)
		}
	}
	rd, err := os.Open(name)
	if err != nil {
		log.Fatal(err)
	}
	defer rd.Close()
	wr, err := os.Create(expfile)
	if err != nil {
		log.Fatal(err)
	}
	defer wr.Close()
	prepare(rd, wr)
}
