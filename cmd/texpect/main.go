// A command line tool to check program outputs against expected outputs
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/fractalqb/texpect"
)

var rootCmd = struct {
	cobra.Command
	config  string
	options string
	expfile string
}{
	Command: cobra.Command{
		Use:   "texpect",
		Short: "Check program outputs against expected output templates",
		Long: `Check program outputs against expected output templates

EXPECTATION FORMAT

   # comment
   % <options>           only before the first template line
   > <template line>     a bare '>' is an empty line

Templates:
   <name>  capture any text as name
   <...>   match any text
   [text]  input at the end of a line (with +input)

Options:
   +norm-ws -tags +input +adv-captures +enhance-diff
   min-rcount=6 recover-timeout=2 input-prefix-range=6:12 rm=<string>`,
		SilenceUsage: true,
	},
}

func init() {
	log.SetFlags(0)
	log.SetPrefix("texpect: ")
	rootCmd.PersistentFlags().StringVarP(&rootCmd.config, "config", "c", "",
		"Load options from a YAML, TOML or JSON file")
	rootCmd.PersistentFlags().StringVarP(&rootCmd.options, "options", "o", "",
		"Set options, e.g. '+norm-ws -tags'")
}

// parser returns a parser with the options from the command line applied to
// the default configuration.
func parser() *texpect.Parser {
	cfg := texpect.DefaultConfig()
	if rootCmd.config != "" {
		if err := texpect.LoadConfigFile(&cfg, rootCmd.config); err != nil {
			log.Fatal(err)
		}
	}
	if err := cfg.ApplyOptions(rootCmd.options); err != nil {
		log.Fatal(err)
	}
	return texpect.NewParser(cfg)
}

// expected reads and builds the expectation file given with -e.
func expected(p *texpect.Parser) *texpect.Expected {
	exp, err := texpect.OpenExpectation(rootCmd.expfile)
	if err != nil {
		log.Fatal(err)
	}
	x, err := exp.Build(p)
	if err != nil {
		log.Fatal(err)
	}
	return x
}

func addExpFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&rootCmd.expfile, "expect", "e", "",
		"Set expectation file name")
	cmd.MarkFlagRequired("expect")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}
