// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package summary

import (
	"bufio"
	"io"
	"strconv"

	"github.com/524D/tparty/internal/bioml"
)

// Header returns the FASTA header line (without newline) for rec:
//
//	>{id}_{length} expect={expect} hyperscore={hyperscore}[ z={charge}][ mh={mass}]
//
// Scores are written as they appear in the BIOML file.
func Header(rec bioml.MatchRecord) string {
	b := make([]byte, 0, 64)
	b = append(b, '>')
	b = append(b, rec.MatchID...)
	b = append(b, '_')
	b = strconv.AppendInt(b, int64(len(rec.Sequence)), 10)
	b = append(b, " expect="...)
	b = appendScore(b, rec.ExpectText, rec.Expect)
	b = append(b, " hyperscore="...)
	b = appendScore(b, rec.HyperscoreText, rec.Hyperscore)
	if rec.HasCharge {
		b = append(b, " z="...)
		b = append(b, rec.Charge...)
	}
	if rec.HasMass {
		b = append(b, " mh="...)
		b = append(b, rec.PrecursorMass...)
	}
	return string(b)
}

func appendScore(b []byte, text string, v float64) []byte {
	if text != "" {
		return append(b, text...)
	}
	return strconv.AppendFloat(b, v, 'g', -1, 64)
}

// FastaEmitter writes one FASTA entry per record, in the order received
type FastaEmitter struct {
	w        *bufio.Writer
	written  int
	proteins *ProteinSet
	stats    *ScoreStats
}

// NewFastaEmitter writes to w. Call Flush when done.
func NewFastaEmitter(w io.Writer) *FastaEmitter {
	return &FastaEmitter{
		w:        bufio.NewWriter(w),
		proteins: NewProteinSet(),
	}
}

// CollectStats makes the emitter keep the scores of every emitted record.
// Memory use then grows with the number of records.
func (e *FastaEmitter) CollectStats() {
	if e.stats == nil {
		e.stats = &ScoreStats{}
	}
}

// Emit writes the two-line entry for rec
func (e *FastaEmitter) Emit(rec bioml.MatchRecord) error {
	e.w.WriteString(Header(rec))
	e.w.WriteByte('\n')
	e.w.WriteString(rec.Sequence)
	if err := e.w.WriteByte('\n'); err != nil {
		return err
	}
	e.written++
	e.proteins.AddRecord(rec)
	if e.stats != nil {
		e.stats.Add(rec)
	}
	return nil
}

// Flush writes buffered entries to the underlying writer
func (e *FastaEmitter) Flush() error {
	return e.w.Flush()
}

// Written returns the number of entries emitted
func (e *FastaEmitter) Written() int {
	return e.written
}

// Proteins returns the distinct protein labels of emitted records
func (e *FastaEmitter) Proteins() *ProteinSet {
	return e.proteins
}

// Stats returns the score statistics of emitted records, or nil
// without CollectStats
func (e *FastaEmitter) Stats() *ScoreStats {
	return e.stats
}

// WriteFasta drains src, emitting records that pass th
func WriteFasta(e *FastaEmitter, src Record, th bioml.Thresholds) error {
	for {
		rec, err := src.Next()
		if err == io.EOF {
			return e.Flush()
		}
		if err != nil {
			e.Flush()
			return err
		}
		if !th.Pass(rec) {
			continue
		}
		if err := e.Emit(rec); err != nil {
			return err
		}
	}
}
