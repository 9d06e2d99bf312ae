// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

// Package bioml reads X!Tandem result files (BIOML) one spectrum at a time.
package bioml

import (
	"errors"
	"fmt"
)

// Mode selects which domains of a spectrum are reported
type Mode int

const (
	// FirstMatch reports only the first domain of each spectrum
	FirstMatch Mode = iota
	// AllMatches reports every domain of each spectrum
	AllMatches
)

func (m Mode) String() string {
	switch m {
	case FirstMatch:
		return "first"
	case AllMatches:
		return "all"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Fields is the set of optional group attributes copied into each record
type Fields uint

const (
	// FieldCharge copies the precursor charge (z)
	FieldCharge Fields = 1 << iota
	// FieldMass copies the precursor mass (mh)
	FieldMass
)

// MissingPolicy determines what happens when a required attribute is absent
type MissingPolicy int

const (
	// AbortDocument stops extraction with a *MissingAttributeError
	AbortDocument MissingPolicy = iota
	// SkipRecord drops the offending record and continues
	SkipRecord
)

// Config selects the extraction policy. The zero value extracts the first
// match of each spectrum without charge or mass, and aborts on missing
// attributes.
type Config struct {
	Mode      Mode
	Fields    Fields
	OnMissing MissingPolicy
}

// MatchRecord is one peptide-to-spectrum match
type MatchRecord struct {
	ProteinLabel string
	MatchID      string
	Expect       float64
	Hyperscore   float64
	// Attribute values as written in the file
	ExpectText     string
	HyperscoreText string
	Charge         string
	PrecursorMass  string
	HasCharge      bool
	HasMass        bool
	Sequence       string
}

// ParseError reports malformed or truncated XML
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("bioml: %s:%d: malformed document: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("bioml: %s: malformed document: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingAttributeError reports a group or domain that lacks an attribute
// the extraction mode needs
type MissingAttributeError struct {
	File    string
	Line    int
	Element string
	Attr    string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("bioml: %s:%d: <%s> has no %q attribute",
		e.File, e.Line, e.Element, e.Attr)
}

// Is makes errors.Is(err, ErrMissingAttribute) true
func (e *MissingAttributeError) Is(target error) bool {
	return target == ErrMissingAttribute
}

// ThresholdParseError reports a non-numeric expect or hyperscore value
type ThresholdParseError struct {
	File  string
	Line  int
	Attr  string
	Value string
	Err   error
}

func (e *ThresholdParseError) Error() string {
	return fmt.Sprintf("bioml: %s:%d: invalid %s value %q",
		e.File, e.Line, e.Attr, e.Value)
}

func (e *ThresholdParseError) Unwrap() error { return e.Err }

var (
	// ErrMissingAttribute matches every *MissingAttributeError
	ErrMissingAttribute = errors.New("bioml: missing attribute")
	// ErrNoRoot means the input contained no XML element at all
	ErrNoRoot = errors.New("bioml: no root element")
)
