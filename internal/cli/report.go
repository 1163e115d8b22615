package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"bcistim/engine"
)

// The presenter process reports its result on stdout as key=value lines.
// This is the only channel between it and the controller besides the
// event log file.

func writeReport(w io.Writer, res engine.Result) {
	fmt.Fprintf(w, "run_id=%s\n", res.RunID)
	fmt.Fprintf(w, "state=%s\n", res.State)
	fmt.Fprintf(w, "trials=%d\n", res.Trials)
	fmt.Fprintf(w, "events=%d\n", len(res.Events))
	if res.OutputPath != "" {
		fmt.Fprintf(w, "output=%s\n", res.OutputPath)
	}
}

func parseReport(r io.Reader) map[string]string {
	report := make(map[string]string)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		key, value, ok := strings.Cut(line, "=")
		if !ok || key == "" {
			continue
		}
		report[key] = value
	}
	return report
}
