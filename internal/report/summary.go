package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"jobsearch-engine/internal/scrape/util"
	"jobsearch-engine/internal/search"
)

// PrintSummary writes the human readable run summary: one row per company
// and the totals. newMatches < 0 leaves the "new" column out of the totals.
func PrintSummary(w io.Writer, res search.RunResult, newMatches int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPANY\tSTATUS\tFETCHED\tMATCHES\tTIME\tERROR")
	for _, o := range res.Outcomes {
		errMsg := ""
		if o.Error != nil {
			errMsg = util.Truncate(string(o.Error.Kind)+": "+o.Error.Message, 60)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			o.Company, o.Status, o.Fetched, len(o.Matches), o.Elapsed.Round(10*time.Millisecond), errMsg)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	c := res.Counts
	fmt.Fprintf(w, "\n%d companies: %d ok, %d failed (%d cancelled), %d timed out. %d matches",
		c.Companies, c.Succeeded, c.Failed, c.Cancelled, c.TimedOut, c.Matches)
	if newMatches >= 0 {
		fmt.Fprintf(w, ", %d new", newMatches)
	}
	_, err := fmt.Fprintf(w, " in %s.\n", res.Duration().Round(time.Millisecond))
	if err != nil {
		return err
	}

	for _, m := range res.Matches() {
		loc := ""
		if m.Location != "" {
			loc = " (" + m.Location + ")"
		}
		if _, err := fmt.Fprintf(w, "  %s: %s%s\n    %s\n", m.Company, m.Title, loc, m.URL); err != nil {
			return err
		}
	}
	return nil
}
