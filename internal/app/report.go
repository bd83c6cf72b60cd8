package app

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/vk/chaingrid/internal/executor"
	"github.com/vk/chaingrid/internal/scripting"
)

const maxDetail = 80

// printReport writes a human-readable summary of a chain run to w.
func printReport(w io.Writer, r *executor.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Chain run %s from '%s' took %s.\n", r.RunID, r.StartID, r.Duration())
	fmt.Fprintln(tw, "#\tNODE\tKIND\tSTATUS\tDETAIL")
	for i, o := range r.Outcomes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, o.NodeID, o.Kind, o.Status, detail(o))
	}
	if r.Canceled {
		fmt.Fprintln(tw, "The run was stopped before every reachable node was visited.")
	}
	return tw.Flush()
}

// detail condenses an outcome into one line: the error when there is one,
// otherwise what the node produced.
func detail(o executor.Outcome) string {
	var s string
	switch out := o.Output.(type) {
	case nil:
	case *scripting.Output:
		s = strings.Join(out.Printed, " | ")
	default:
		b, err := sonic.MarshalString(out)
		if err != nil {
			s = fmt.Sprintf("%v", out)
		} else {
			s = b
		}
	}
	if o.Error != "" {
		s = o.Error
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxDetail {
		s = s[:maxDetail-3] + "..."
	}
	return s
}
