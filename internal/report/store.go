// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package report

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/524D/tparty/internal/config"
)

// Sample is the registration of a sample in the samples table
type Sample struct {
	EU       string `bson:"eu"`
	Project  string `bson:"project"`
	PID      string `bson:"pid"`
	PNotes   string `bson:"pnotes"`
	Species  string `bson:"species"`
	MixRatio string `bson:"mixratio"`
	Notes    string `bson:"notes"`
}

// ErrSampleNotFound means the sample is not registered in the samples table
var ErrSampleNotFound = errors.New("report: sample not registered")

// Store is a remote table of samples and results, keyed by sample id
type Store interface {
	Sample(ctx context.Context, pid string) (Sample, error)
	AppendRow(ctx context.Context, row Row) error
}

// resultDoc is the stored form of a Row
type resultDoc struct {
	PID                    string    `bson:"pid"`
	EU                     string    `bson:"eu"`
	Project                string    `bson:"project"`
	Species                string    `bson:"species"`
	Hostname               string    `bson:"hostname"`
	XTandemDB              string    `bson:"xtandem_db"`
	GenomeDB               string    `bson:"genome_db"`
	TaxrefDB               string    `bson:"taxref_db"`
	AnnotationDB           string    `bson:"annotation_db"`
	UniqueProteins         int       `bson:"unique_proteins"`
	HumanProteins          int       `bson:"human_proteins"`
	Peptides               int       `bson:"peptides"`
	DiscriminativePeptides int       `bson:"discriminative_peptides"`
	Completed              string    `bson:"completed"`
	Reported               time.Time `bson:"reported"`
}

func newResultDoc(r Row) resultDoc {
	return resultDoc{
		PID:                    r.PID,
		EU:                     r.EU,
		Project:                r.Project,
		Species:                r.Species,
		Hostname:               r.Hostname,
		XTandemDB:              r.DBVersions.XTandem,
		GenomeDB:               r.DBVersions.Genome,
		TaxrefDB:               r.DBVersions.Taxref,
		AnnotationDB:           r.DBVersions.Annotation,
		UniqueProteins:         r.Summary.UniqueProteins,
		HumanProteins:          r.Summary.HumanProteins,
		Peptides:               r.Summary.Peptides,
		DiscriminativePeptides: r.Summary.DiscriminativePeptides,
		Completed:              r.Summary.Completed,
		Reported:               r.Reported,
	}
}

// MongoStore keeps samples and results in MongoDB collections
type MongoStore struct {
	client  *mongo.Client
	samples *mongo.Collection
	results *mongo.Collection
	timeout time.Duration
}

// NewMongoStore connects to the store described by cfg
func NewMongoStore(ctx context.Context, cfg config.StoreConfig) (*MongoStore, error) {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.Connection))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Connection, err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging %s: %w", cfg.Connection, err)
	}
	db := client.Database(cfg.Database)
	m := &MongoStore{
		client:  client,
		samples: db.Collection(cfg.Samples),
		results: db.Collection(cfg.Results),
		timeout: timeout,
	}
	m.createIndexes(ctx)
	return m, nil
}

func (m *MongoStore) createIndexes(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "pid", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := m.results.Indexes().CreateOne(ctx, idx); err != nil {
		log.Printf("Creating pid index on results: %v", err)
	}
}

// Sample looks up the registration of pid
func (m *MongoStore) Sample(ctx context.Context, pid string) (Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	var s Sample
	err := m.samples.FindOne(ctx, bson.M{"pid": pid}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return s, fmt.Errorf("%w: %s", ErrSampleNotFound, pid)
	}
	return s, err
}

// AppendRow stores row, replacing an earlier row of the same sample
func (m *MongoStore) AppendRow(ctx context.Context, row Row) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	_, err := m.results.UpdateOne(ctx,
		bson.M{"pid": row.PID},
		bson.M{"$set": newResultDoc(row)},
		options.Update().SetUpsert(true))
	return err
}

// Close disconnects from the database
func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
