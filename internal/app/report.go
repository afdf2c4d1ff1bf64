package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhornung97/ETPApprover/internal/domain"
)

// summaryEmailBody lists the newly processed submissions for the run report
// mail.
func summaryEmailBody(report domain.RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Scan finished at %s.\n\n", report.Finished.Format(time.RFC1123))
	fmt.Fprintf(&b, "Fetched %d pending submission(s), %d already processed, %d handled this run.\n\n",
		report.Fetched, report.Deduped, len(report.Processed))

	for _, sub := range report.Processed {
		fmt.Fprintf(&b, "- %q by %s (%s)\n", sub.Title, sub.Author, sub.ThesisType)
	}

	sent, failed, skipped := report.Counts()
	fmt.Fprintf(&b, "\nNotifications: %d sent, %d failed, %d skipped.\n", sent, failed, skipped)

	return b.String()
}
