// Command server runs the opportunity finder web app, or a single search
// from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "opportunity-finder",
	Short: "Find business opportunities in Reddit discussions",
	Long:  "Opportunity Finder searches a subreddit for a keyword and asks a language model which posts describe problems worth building a business around.",
	RunE:  runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
