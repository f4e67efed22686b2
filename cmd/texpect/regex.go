package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	regexCmd.Run = showRegex
	addExpFlag(regexCmd)
	rootCmd.AddCommand(regexCmd)

	inputsCmd.Run = showInputs
	addExpFlag(inputsCmd)
	rootCmd.AddCommand(inputsCmd)
}

var regexCmd = &cobra.Command{
	Use:   "regex",
	Short: "Show the regular expression fragments of an expectation file",
	Args:  cobra.NoArgs,
}

func showRegex(cmd *cobra.Command, _ []string) {
	x := expected(parser())
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 1, ' ', 0)
	fmt.Fprintln(tw, "OFFSET\tRCOUNT\tTAG\tREGEX")
	for _, f := range x.Fragments() {
		tag := ""
		if f.Tag {
			tag = "<...>"
			if f.Name != "" {
				tag = "<" + f.Name + ">"
			}
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", f.Offset, f.RCount, tag, f.Regex)
	}
	tw.Flush()
	fmt.Println(x.Regex())
}

var inputsCmd = &cobra.Command{
	Use:   "inputs",
	Short: "Show the inputs of an expectation file with their prefixes",
	Args:  cobra.NoArgs,
}

func showInputs(cmd *cobra.Command, _ []string) {
	x := expected(parser())
	for i, in := range x.Inputs() {
		fmt.Printf("%d: %s after %s\n",
			i+1,
			strconv.Quote(in.Value),
			strconv.Quote(in.Prefix),
		)
	}
}
