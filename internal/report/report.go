// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package report

import (
	"context"
	"time"
)

// Submit gathers the summary of every sample in pids and appends a row
// for it to store. Every sample must be registered; the first sample that
// is not stops the submission.
func Submit(ctx context.Context, store Store, baseDir string, pids []string,
	host string, dbv DBVersions) ([]Row, error) {
	rows := make([]Row, 0, len(pids))
	for _, pid := range pids {
		sum, err := Gather(baseDir, pid)
		if err != nil {
			return rows, err
		}
		sample, err := store.Sample(ctx, pid)
		if err != nil {
			return rows, err
		}
		row := NewRow(sample, host, dbv, sum)
		row.Reported = time.Now().UTC()
		if err := store.AppendRow(ctx, row); err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
