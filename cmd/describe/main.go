// Command describe computes summary statistics for a CSV file and
// prints them as JSON. Input is partitioned across workers and the
// per-partition aggregates are merged, so the output is identical for
// any worker count.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jqnatividad/qsv-stats/pkg/describe"
)

func main() {
	var (
		partitions = flag.Int("partitions", 0, "partition worker count (0 = default, 1 = sequential)")
		noHeader   = flag.Bool("no-header", false, "treat the first record as data")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [file.csv]\n\nReads the named CSV file, or stdin when no file is given.\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	var in io.Reader = os.Stdin
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			log.Fatalf("❌ Failed to open input: %v", err)
		}
		defer f.Close()
		in = f
	}

	report, err := describe.CSV(context.Background(), in, describe.Options{
		Partitions: *partitions,
		NoHeader:   *noHeader,
	})
	if err != nil {
		log.Fatalf("❌ Failed to describe input: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatalf("❌ Failed to encode report: %v", err)
	}
}
