package describe

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/jqnatividad/qsv-stats/pkg/config"
	"github.com/jqnatividad/qsv-stats/pkg/stats"
)

// Options configures a CSV describe run.
type Options struct {
	// Partitions is the number of partition workers. Zero means
	// config.DefaultPartitions; one disables fan-out entirely.
	Partitions int

	// NoHeader treats the first record as data and names columns
	// col_1, col_2, ...
	NoHeader bool
}

// Report is the result of describing one CSV stream.
type Report struct {
	Rows       int           `json:"rows"`
	Partitions int           `json:"partitions"`
	Columns    []ColumnStats `json:"columns"`
}

// partition is the aggregate state owned by one worker. Workers never
// share state; the coordinator merges partitions after all input is
// consumed, which is what keeps the worker loop synchronization-free.
type partition struct {
	cols []*ColumnAggregate
}

func newPartition(names []string) *partition {
	p := &partition{cols: make([]*ColumnAggregate, len(names))}
	for i, name := range names {
		p.cols[i] = NewColumnAggregate(name)
	}
	return p
}

// addRecord routes each cell into its column aggregate. Empty and
// non-numeric cells count as nulls.
func (p *partition) addRecord(record []string) {
	for i, cell := range record {
		if i >= len(p.cols) {
			break
		}
		cell = strings.TrimSpace(cell)
		if cell == "" {
			p.cols[i].AddNull()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			p.cols[i].AddNull()
			continue
		}
		p.cols[i].Add(v)
	}
}

// CSV reads an entire CSV stream and produces per-column statistics.
//
// Records are batched and dealt round-robin to partition workers; each
// worker accumulates its own aggregates and the partitions are merged
// once the stream ends. The partition count therefore affects only
// parallelism: the report is the same (within floating-point
// tolerance for the moment statistics) for any worker count.
func CSV(ctx context.Context, r io.Reader, opts Options) (*Report, error) {
	workers := opts.Partitions
	if workers <= 0 {
		workers = config.DefaultPartitions
	}

	cr := csv.NewReader(r)
	names, firstData, err := readColumnNames(cr, opts.NoHeader)
	if err != nil {
		return nil, err
	}
	if names == nil {
		// Empty input: no columns, no rows.
		return &Report{Partitions: workers}, nil
	}

	parts := make([]*partition, workers)
	feeds := make([]chan [][]string, workers)
	var wg sync.WaitGroup
	for i := range parts {
		parts[i] = newPartition(names)
		feeds[i] = make(chan [][]string, 1)
		wg.Add(1)
		go func(p *partition, feed <-chan [][]string) {
			defer wg.Done()
			for batch := range feed {
				for _, record := range batch {
					p.addRecord(record)
				}
			}
		}(parts[i], feeds[i])
	}

	rows, next := 0, 0
	batch := make([][]string, 0, config.DescribeBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		feeds[next] <- batch
		next = (next + 1) % workers
		batch = make([][]string, 0, config.DescribeBatchSize)
	}

	var readErr error
	if firstData != nil {
		// Without a header, the first record is data too.
		batch = append(batch, firstData)
		rows++
	}
	for {
		if err := ctx.Err(); err != nil {
			readErr = err
			break
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			readErr = fmt.Errorf("read csv record: %w", err)
			break
		}
		rows++
		batch = append(batch, record)
		if len(batch) >= config.DescribeBatchSize {
			flush()
		}
	}
	flush()
	for _, feed := range feeds {
		close(feed)
	}
	wg.Wait()
	if readErr != nil {
		return nil, readErr
	}

	report := &Report{
		Rows:       rows,
		Partitions: workers,
		Columns:    make([]ColumnStats, len(names)),
	}
	for i := range names {
		colParts := make([]*ColumnAggregate, workers)
		for j, p := range parts {
			colParts[j] = p.cols[i]
		}
		merged, ok := stats.MergeAll(colParts...)
		if !ok {
			merged = NewColumnAggregate(names[i])
		}
		report.Columns[i] = merged.Stats()
	}
	return report, nil
}

// readColumnNames consumes the first record. With a header it supplies
// the column names; without one, columns get positional names and the
// record is handed back as data. Nil names mean the stream was empty.
func readColumnNames(cr *csv.Reader, noHeader bool) (names, firstData []string, err error) {
	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	if !noHeader {
		return first, nil, nil
	}
	names = make([]string, len(first))
	for i := range first {
		names[i] = fmt.Sprintf("col_%d", i+1)
	}
	return names, first, nil
}
