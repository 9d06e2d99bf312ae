// This file contains code to help debugging, and is
// separated in from the rest in order not to litter
// the main code with debugging stuff

package main

import (
	"flag"
	"fmt"
	"math"

	"github.com/524D/tparty/internal/bioml"
	"github.com/524D/tparty/internal/summary"
)

var debugRecs *string // Print debug output for given record range

func registerDebugFlag(fs *flag.FlagSet) {
	debugRecs = fs.String("debug", "",
		"Print debug output for given match record `range` e.g. 3:6")
}

// debugRecords passes records on unchanged, printing the ones in the
// debug range
type debugRecords struct {
	src      summary.Record
	i        int
	min, max int
}

func newDebugRecords(src summary.Record) summary.Record {
	if debugRecs == nil || *debugRecs == `` {
		return src
	}
	d := &debugRecords{src: src}
	d.min, d.max, _ = parseIntRange(*debugRecs, 0, math.MaxInt32)
	return d
}

func (d *debugRecords) Next() (bioml.MatchRecord, error) {
	rec, err := d.src.Next()
	if err != nil {
		return rec, err
	}
	if d.i >= d.min && d.i <= d.max {
		fmt.Printf("Record:%d protein:%s id:%s expect:%s(%g) hyperscore:%s(%g) seq:%s",
			d.i, rec.ProteinLabel, rec.MatchID,
			rec.ExpectText, rec.Expect, rec.HyperscoreText, rec.Hyperscore,
			rec.Sequence)
		if rec.HasCharge {
			fmt.Printf(" z:%s", rec.Charge)
		}
		if rec.HasMass {
			fmt.Printf(" mh:%s", rec.PrecursorMass)
		}
		fmt.Printf("\n")
	}
	d.i++
	return rec, nil
}
