// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package report

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"

	"golang.org/x/net/html/charset"

	"github.com/524D/tparty/internal/config"
)

// DBVersions are the dates of the databases used by the pipeline
type DBVersions struct {
	XTandem    string
	Genome     string
	Taxref     string
	Annotation string
}

type taxonomyList struct {
	XMLName xml.Name `xml:"bioml"`
	Taxon   []struct {
		Label string `xml:"label,attr"`
		File  []struct {
			Format string `xml:"format,attr"`
			URL    string `xml:"URL,attr"`
		} `xml:"file"`
	} `xml:"taxon"`
}

// ErrUnknownTaxon means the taxonomy file has no entry for the taxon
var ErrUnknownTaxon = errors.New("report: taxon not in taxonomy file")

// TaxonDatabase returns the first database file listed for taxon in an
// X!Tandem taxonomy.xml file
func TaxonDatabase(taxonomyFile, taxon string) (string, error) {
	f, err := os.Open(taxonomyFile)
	if err != nil {
		return "", err
	}
	defer f.Close()
	d := xml.NewDecoder(f)
	d.CharsetReader = charset.NewReaderLabel
	var list taxonomyList
	if err := d.Decode(&list); err != nil {
		return "", fmt.Errorf("%s: %w", taxonomyFile, err)
	}
	for _, t := range list.Taxon {
		if t.Label == taxon && len(t.File) > 0 {
			return t.File[0].URL, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrUnknownTaxon, taxon, taxonomyFile)
}

// GetDBVersions determines the database dates from the pipeline
// configuration. A database version is its modification date.
func GetDBVersions(cfg *config.Config) (DBVersions, error) {
	var v DBVersions
	db, err := TaxonDatabase(cfg.XTandemTaxonomy, cfg.Tandem.Taxon)
	if err != nil {
		return v, err
	}
	if v.XTandem, err = modDate(db); err != nil {
		return v, err
	}
	if len(cfg.GenomeDBs) == 0 {
		return v, errors.New("report: no genome database configured")
	}
	if v.Genome, err = modDate(cfg.GenomeDBs[0]); err != nil {
		return v, err
	}
	if v.Taxref, err = modDate(cfg.TaxrefDB); err != nil {
		return v, err
	}
	if v.Annotation, err = modDate(cfg.AnnotationDB); err != nil {
		return v, err
	}
	return v, nil
}
