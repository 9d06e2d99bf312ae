// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package bioml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

// node is an element inside the spectrum group that is currently being
// parsed. Nodes exist only between the start of a model group and the
// moment its records have been reported.
type node struct {
	name     string
	line     int
	attr     []xml.Attr
	children []*node
	text     []byte
}

// Extractor produces match records from a BIOML stream. Records are read
// on demand; the stream can be consumed only once.
type Extractor struct {
	name   string
	cfg    Config
	d      *xml.Decoder
	closer io.Closer

	stack   []*node // open elements of the model group being parsed
	group   *node   // completed model group whose domains are being reported
	domains []*node
	next    int

	sawRoot bool
	err     error

	live    int
	peak    int
	skipped int
}

// NewExtractor reads BIOML from reader. name identifies the input in
// error messages.
func NewExtractor(reader io.Reader, name string, cfg Config) *Extractor {
	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel
	return &Extractor{name: name, cfg: cfg, d: d}
}

// Open opens a BIOML file. The caller must Close the extractor, also
// when it stops reading before io.EOF.
func Open(path string, cfg Config) (*Extractor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	x := NewExtractor(f, path, cfg)
	x.closer = f
	return x, nil
}

// Close releases the parsed nodes and the underlying file
func (x *Extractor) Close() error {
	x.dropGroup()
	if len(x.stack) > 0 {
		x.release(x.stack[0])
		x.stack = nil
	}
	if x.err == nil {
		x.err = os.ErrClosed
	}
	if x.closer == nil {
		return nil
	}
	c := x.closer
	x.closer = nil
	return c.Close()
}

// Name returns the input name used in error messages
func (x *Extractor) Name() string {
	return x.name
}

// LiveNodes returns the number of parsed elements currently retained
func (x *Extractor) LiveNodes() int {
	return x.live
}

// PeakNodes returns the highest value LiveNodes has had
func (x *Extractor) PeakNodes() int {
	return x.peak
}

// Skipped returns the number of records dropped under SkipRecord
func (x *Extractor) Skipped() int {
	return x.skipped
}

// Next returns the next match record, or io.EOF when the document
// is exhausted. After an error, every further call returns the same error.
func (x *Extractor) Next() (MatchRecord, error) {
	if x.err != nil {
		return MatchRecord{}, x.err
	}
	for {
		for x.group != nil && x.next < len(x.domains) {
			dom := x.domains[x.next]
			x.next++
			rec, err := x.record(x.group, dom)
			if err == nil {
				return rec, nil
			}
			if x.cfg.OnMissing == SkipRecord && errors.Is(err, ErrMissingAttribute) {
				x.skipped++
				continue
			}
			x.dropGroup()
			x.err = err
			return MatchRecord{}, err
		}
		x.dropGroup()

		g, err := x.nextGroup()
		if err != nil {
			x.err = err
			return MatchRecord{}, err
		}
		x.group = g
		x.domains = findDomains(g, x.cfg.Mode == FirstMatch)
		x.next = 0
	}
}

// nextGroup parses up to and including the end tag of the next
// spectrum-level group and returns its subtree
func (x *Extractor) nextGroup() (*node, error) {
	for {
		t, err := x.d.Token()
		line, _ := x.d.InputPos()
		if err != nil {
			if err == io.EOF {
				if !x.sawRoot {
					return nil, &ParseError{File: x.name, Err: ErrNoRoot}
				}
				return nil, io.EOF
			}
			return nil, &ParseError{File: x.name, Line: line, Err: err}
		}
		switch t := t.(type) {
		case xml.StartElement:
			x.sawRoot = true
			if len(x.stack) == 0 && !isModelGroup(t) {
				// Parameter and support groups outside a spectrum
				continue
			}
			n := x.newNode(t, line)
			if len(x.stack) > 0 {
				parent := x.stack[len(x.stack)-1]
				parent.children = append(parent.children, n)
			}
			x.stack = append(x.stack, n)
		case xml.EndElement:
			if len(x.stack) == 0 {
				continue
			}
			n := x.stack[len(x.stack)-1]
			x.stack = x.stack[:len(x.stack)-1]
			if len(x.stack) == 0 {
				return n, nil
			}
		case xml.CharData:
			if len(x.stack) > 0 {
				if b := bytes.TrimSpace(t); len(b) > 0 {
					n := x.stack[len(x.stack)-1]
					n.text = append(n.text, b...)
				}
			}
		}
	}
}

func isModelGroup(t xml.StartElement) bool {
	if t.Name.Local != "group" {
		return false
	}
	typ, _ := attrValue(t.Attr, "type")
	return typ == "model"
}

func (x *Extractor) newNode(t xml.StartElement, line int) *node {
	n := &node{
		name: t.Name.Local,
		line: line,
		attr: make([]xml.Attr, len(t.Attr)),
	}
	copy(n.attr, t.Attr)
	x.live++
	if x.live > x.peak {
		x.peak = x.live
	}
	return n
}

// release clears a subtree so that nothing keeps it reachable
func (x *Extractor) release(n *node) {
	for i, c := range n.children {
		x.release(c)
		n.children[i] = nil
	}
	n.children = nil
	n.text = nil
	n.attr = nil
	x.live--
}

func (x *Extractor) dropGroup() {
	if x.group == nil {
		return
	}
	for i := range x.domains {
		x.domains[i] = nil
	}
	x.domains = nil
	x.next = 0
	x.release(x.group)
	x.group = nil
}

// findDomains returns the domain descendants of g in document order
func findDomains(g *node, firstOnly bool) []*node {
	var found []*node
	var walk func(n *node) bool
	walk = func(n *node) bool {
		for _, c := range n.children {
			if c.name == "domain" {
				found = append(found, c)
				if firstOnly {
					return true
				}
				continue
			}
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(g)
	return found
}

// record combines the group and domain attributes into a MatchRecord
func (x *Extractor) record(group, dom *node) (MatchRecord, error) {
	var rec MatchRecord
	var err error

	if rec.ProteinLabel, err = x.require(group, "label"); err != nil {
		return rec, err
	}
	if x.cfg.Fields&FieldCharge != 0 {
		if rec.Charge, err = x.require(group, "z"); err != nil {
			return rec, err
		}
		rec.HasCharge = true
	}
	if x.cfg.Fields&FieldMass != 0 {
		if rec.PrecursorMass, err = x.require(group, "mh"); err != nil {
			return rec, err
		}
		rec.HasMass = true
	}
	if rec.MatchID, err = x.require(dom, "id"); err != nil {
		return rec, err
	}
	if rec.ExpectText, err = x.require(dom, "expect"); err != nil {
		return rec, err
	}
	if rec.HyperscoreText, err = x.require(dom, "hyperscore"); err != nil {
		return rec, err
	}
	if rec.Sequence, err = x.require(dom, "seq"); err != nil {
		return rec, err
	}
	if rec.Expect, err = x.parseScore(dom, "expect", rec.ExpectText); err != nil {
		return rec, err
	}
	if rec.Hyperscore, err = x.parseScore(dom, "hyperscore", rec.HyperscoreText); err != nil {
		return rec, err
	}
	return rec, nil
}

func (x *Extractor) require(n *node, name string) (string, error) {
	v, ok := attrValue(n.attr, name)
	if !ok {
		return "", &MissingAttributeError{File: x.name, Line: n.line, Element: n.name, Attr: name}
	}
	return v, nil
}

func (x *Extractor) parseScore(n *node, name, value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, &ThresholdParseError{File: x.name, Line: n.line, Attr: name, Value: value, Err: err}
	}
	return f, nil
}

func attrValue(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
