// Command evaluate grades YAML fixture cases offline with the same evaluator
// the server uses. It exits non-zero when any case misses its expectation.
//
//	evaluate -f cases.yaml [-json]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/stemsi/lingua-backend/internal/logger"
)

func main() {
	var (
		path     string
		asJSON   bool
		logLevel string
	)
	flag.StringVar(&path, "f", "", "Path to a YAML fixture file")
	flag.BoolVar(&asJSON, "json", false, "Print results as JSON lines")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level")
	flag.Parse()

	log := logger.New(os.Stderr, logLevel, "pretty")

	if path == "" {
		flag.Usage()
		os.Exit(2)
	}

	cases, err := loadCases(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to load fixtures")
	}

	failed := report(os.Stdout, cases, asJSON)
	log.Info().Int("cases", len(cases)).Int("failed", failed).Msg("Evaluation finished")
	if failed > 0 {
		os.Exit(1)
	}
}

// report runs every case, writes one line per case and returns the number of
// failed expectations.
func report(w io.Writer, cases []fixtureCase, asJSON bool) int {
	enc := json.NewEncoder(w)
	failed := 0
	for _, c := range cases {
		out := c.run()
		if out.Failed != "" {
			failed++
		}
		if asJSON {
			_ = enc.Encode(out)
			continue
		}

		status := "ok  "
		if out.Failed != "" {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s %-40s %-15s %g", status, out.Name, out.Result.Verdict, out.Result.PointsEarned)
		if out.Result.Explanation != "" {
			fmt.Fprintf(w, "  (%s)", out.Result.Explanation)
		}
		if out.Failed != "" {
			fmt.Fprintf(w, "  => %s", out.Failed)
		}
		fmt.Fprintln(w)
	}
	return failed
}
