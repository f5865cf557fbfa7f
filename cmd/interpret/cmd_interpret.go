package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"agency_bot/internal/format"
	"agency_bot/internal/interpret"
)

func newMediaCmd(opts *options, vocab *interpret.Vocabulary) *cobra.Command {
	var fallback string
	cmd := &cobra.Command{
		Use:   "media <text...>",
		Short: "Interpret a media monitoring request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := interpret.ParseFallbackPolicy(strings.ToLower(fallback))
			if err != nil {
				return err
			}
			now, err := opts.referenceTime()
			if err != nil {
				return err
			}
			r := interpret.NewMedia(vocab, policy).Interpret(strings.Join(args, " "), now)
			return render(cmd.OutOrStdout(), opts.format, r, format.MediaFields(r.Fields))
		},
	}
	cmd.Flags().StringVar(&fallback, "fallback", "none", "what to fill in when nothing matches: none or assistant")
	return cmd
}

func newInfluencerCmd(opts *options, vocab *interpret.Vocabulary) *cobra.Command {
	return &cobra.Command{
		Use:     "influencer <text...>",
		Aliases: []string{"influencers"},
		Short:   "Interpret an influencer search request",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := opts.referenceTime()
			if err != nil {
				return err
			}
			r := interpret.NewInfluencer(vocab).Interpret(strings.Join(args, " "), now)
			return render(cmd.OutOrStdout(), opts.format, r, format.InfluencerFields(r.Fields))
		},
	}
}

func newTrackingCmd(opts *options, vocab *interpret.Vocabulary) *cobra.Command {
	return &cobra.Command{
		Use:     "tracking <text...>",
		Aliases: []string{"track"},
		Short:   "Interpret a social media tracking request",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := opts.referenceTime()
			if err != nil {
				return err
			}
			r := interpret.NewTracking(vocab).Interpret(strings.Join(args, " "), now)
			return render(cmd.OutOrStdout(), opts.format, r, format.TrackerFields(r.Fields))
		},
	}
}

func render[T any](w io.Writer, mode string, r interpret.Result[T], fields []format.Field) error {
	if mode == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	m, ok := format.ParseMode(mode)
	if !ok {
		return fmt.Errorf("unknown --format %q: want table, markdown or json", mode)
	}
	fmt.Fprintln(w, format.FieldsTable(m, fields))
	fmt.Fprintf(w, "\nConfidence: %s\n", format.Percent(r.Confidence))
	if len(r.Suggestions) > 0 {
		fmt.Fprintln(w, "\nSuggestions:")
		for _, s := range r.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	return nil
}
