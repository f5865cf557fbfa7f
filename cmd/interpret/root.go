// Command interpret prints the structured filter derived from a phrase.
//
// Usage:
//
//	interpret media Show me positive TechCrunch articles from last week
//	interpret influencer --format json Find tech YouTubers with over 100k subscribers
//	interpret tracking --now 2025-06-18 Track mentions of TechCorp for 30 days
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"agency_bot/internal/interpret"
)

// version is set at build time via -ldflags.
var version = "dev"

type options struct {
	now    string
	format string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "interpret",
		Short: "Turn a natural-language request into a structured filter",
		Long: "interpret runs the media, influencer or tracking interpreter over a phrase\n" +
			"and prints the resulting filter, its suggestions and its confidence.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.now, "now", "", "reference time, RFC 3339 or YYYY-MM-DD (default: current time)")
	f.StringVarP(&opts.format, "format", "f", "table", "output format: table, markdown or json")

	vocab := interpret.DefaultVocabulary()
	root.AddCommand(
		newMediaCmd(opts, vocab),
		newInfluencerCmd(opts, vocab),
		newTrackingCmd(opts, vocab),
	)
	return root
}

// referenceTime parses --now, defaulting to the current time.
func (o *options) referenceTime() (time.Time, error) {
	if o.now == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, o.now); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", o.now, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: want RFC 3339 or YYYY-MM-DD", o.now)
	}
	return t, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
