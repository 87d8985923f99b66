package visualization

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/nvandessel/virusnet/internal/epidemic"
)

// SeriesFormat specifies the output format for a time series.
type SeriesFormat string

const (
	SeriesTable SeriesFormat = "table"
	SeriesCSV   SeriesFormat = "csv"
	SeriesJSON  SeriesFormat = "json"
)

// Columns are the series headers, in the data collector's naming.
var Columns = []string{"Step", "Infected", "Susceptible", "Resistant", "R over S"}

// RenderSeries writes series to w in the given format.
func RenderSeries(w io.Writer, series []epidemic.Snapshot, format SeriesFormat) error {
	switch format {
	case SeriesTable, "":
		return renderTable(w, series)
	case SeriesCSV:
		return renderCSV(w, series)
	case SeriesJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(nonNilSeries(series)); err != nil {
			return fmt.Errorf("encode series: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported series format %q (use 'table', 'csv', or 'json')", format)
	}
}

func renderTable(w io.Writer, series []epidemic.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for i, col := range Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, col)
	}
	fmt.Fprint(tw, "\t\n")
	for _, s := range series {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\t\n", s.Step, s.Infected, s.Susceptible, s.Resistant, s.Ratio)
	}
	return tw.Flush()
}

func renderCSV(w io.Writer, series []epidemic.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range series {
		record := []string{
			strconv.Itoa(s.Step),
			strconv.Itoa(s.Infected),
			strconv.Itoa(s.Susceptible),
			strconv.Itoa(s.Resistant),
			s.Ratio.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", s.Step, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func nonNilSeries(series []epidemic.Snapshot) []epidemic.Snapshot {
	if series == nil {
		return []epidemic.Snapshot{}
	}
	return series
}
