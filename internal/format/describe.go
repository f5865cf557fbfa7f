package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"agency_bot/internal/interpret"
	"agency_bot/internal/model"
)

// DateLayout is how filter dates are shown.
const DateLayout = "2006-01-02"

// Field is one labelled line of a described filter.
type Field struct {
	Label string
	Value string
}

// MediaFields describes a media filter.
func MediaFields(f model.MediaFilter) []Field {
	reach := "any"
	if f.MinReach > 0 {
		reach = interpret.HumanCount(f.MinReach)
	}
	return []Field{
		{"Query", orDash(f.Query)},
		{"Date range", DateRange(f.DateRange)},
		{"Media types", List(f.MediaTypes)},
		{"Sentiment", List(f.Sentiment)},
		{"Outlets", List(f.Outlets)},
		{"Min reach", reach},
	}
}

// InfluencerFields describes an influencer search.
func InfluencerFields(s model.InfluencerSearch) []Field {
	scope := "external"
	if s.UseInternalDB {
		scope = "internal"
	}
	return []Field{
		{"Query", orDash(s.Query)},
		{"Platform", s.Platform},
		{"Category", s.Category},
		{"Followers", interpret.HumanCount(s.MinFollowers) + "-" + interpret.HumanCount(s.MaxFollowers)},
		{"Min engagement", strconv.FormatFloat(s.MinEngagement, 'f', -1, 64) + "%"},
		{"Database", scope},
	}
}

// TrackerFields describes a tracker spec.
func TrackerFields(s model.TrackerSpec) []Field {
	return []Field{
		{"Name", s.Name},
		{"Keywords", orDash(strings.Join(s.Keywords, ", "))},
		{"Hashtags", orDash(strings.Join(s.Hashtags, ", "))},
		{"Platforms", List(s.Platforms)},
		{"Window", DateRange(model.DateRange{Start: s.StartDate, End: s.EndDate})},
	}
}

// FieldsTable renders fields as a two-column table.
func FieldsTable(m Mode, fields []Field) string {
	tb := NewTable(m)
	tb.Header("Field", "Value")
	for _, f := range fields {
		tb.Row(f.Label, f.Value)
	}
	tb.MaxWidth(2, 60)
	return tb.String()
}

// Lines renders fields as "Label: value" lines.
func Lines(fields []Field) string {
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
	}
	return b.String()
}

// DateRange renders a range whose bounds may be unset.
func DateRange(r model.DateRange) string {
	switch {
	case r.Start.IsZero() && r.End.IsZero():
		return "any"
	case r.End.IsZero():
		return "from " + r.Start.Format(DateLayout)
	case r.Start.IsZero():
		return "until " + r.End.Format(DateLayout)
	}
	return r.Start.Format(DateLayout) + " to " + r.End.Format(DateLayout)
}

// List joins values, or returns "any" for an empty list.
func List(values []string) string {
	if len(values) == 0 {
		return "any"
	}
	return strings.Join(values, ", ")
}

// Percent renders a confidence in [0,1] as a whole percentage.
func Percent(confidence float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(confidence*100)))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
