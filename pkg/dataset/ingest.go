package dataset

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/curateml/curate/pkg/curerrors"
	"github.com/curateml/curate/pkg/metrics"
	"github.com/curateml/curate/pkg/parser"
	"github.com/curateml/curate/pkg/sample"
	"github.com/curateml/curate/pkg/schema"
)

// DefaultLabelField is the field labeled ingest runs write to when no
// field is named.
const DefaultLabelField = "ground_truth"

// AddImagesOptions configure an unlabeled ingest run.
type AddImagesOptions struct {
	// Tags are attached to every ingested sample.
	Tags []string
}

// AddLabeledImagesOptions configure a labeled ingest run.
type AddLabeledImagesOptions struct {
	// LabelField is the field single labels are written to. Per-record
	// field mappings ignore it and write each entry under its own name.
	// Defaults to "ground_truth".
	LabelField string

	// Tags are attached to every ingested sample.
	Tags []string

	// ExpandSchema controls whether records may introduce new schema
	// fields. Nil defaults to true; when explicitly false, any record
	// whose fields are not already a subset of the schema fails the
	// whole batch.
	ExpandSchema *bool
}

// AddImages ingests every record in src through an unlabeled image parser
// and returns the IDs of the added samples in source order. The batch
// aborts on the first failing record; IDs accumulated before the failure
// are returned alongside the error.
func (d *Dataset) AddImages(ctx context.Context, src Source, p parser.UnlabeledImageParser, opts AddImagesOptions) ([]string, error) {
	if err := requireImagePaths(p); err != nil {
		return nil, err
	}
	defer p.ClearRecord()

	d.logIngestStart(src, p)
	tracker := metrics.NewThroughputTracker(d.name, parserName(p))

	var ids []string
	for {
		record, ok := src.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return ids, err
		}

		s, err := d.parseImage(record, p, opts.Tags)
		if err != nil {
			d.recordFailure(p, err)
			return ids, err
		}

		id, err := d.Add(ctx, s)
		if err != nil {
			d.recordFailure(p, err)
			return ids, err
		}
		ids = append(ids, id)
		tracker.Increment(1)
		metrics.SamplesIngested.WithLabelValues(d.name, parserName(p), "success").Inc()
	}

	d.finishIngest(ctx, tracker, len(ids))
	return ids, nil
}

// AddLabeledImages ingests every record in src through a labeled image
// parser. Single labels land in the configured label field; per-record
// field mappings fan out into one field per entry, each written under its
// own name. When the parser declares a single static label type, the label
// field is created in the schema before the first record.
func (d *Dataset) AddLabeledImages(ctx context.Context, src Source, p parser.LabeledImageParser, opts AddLabeledImagesOptions) ([]string, error) {
	if err := requireImagePaths(p); err != nil {
		return nil, err
	}
	defer p.ClearRecord()

	labelField := opts.LabelField
	if labelField == "" {
		labelField = DefaultLabelField
	}
	expand := opts.ExpandSchema == nil || *opts.ExpandSchema

	if typ, single := p.LabelType(); single && expand {
		err := d.schema.EnsureField(labelField, schema.KindEmbedded, schema.WithEmbedded(typ))
		if err != nil {
			return nil, err
		}
	}

	d.logIngestStart(src, p)
	tracker := metrics.NewThroughputTracker(d.name, parserName(p))

	var ids []string
	for {
		record, ok := src.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return ids, err
		}

		s, err := d.parseLabeledImage(record, p, labelField, opts.Tags)
		if err != nil {
			d.recordFailure(p, err)
			return ids, err
		}

		id, err := d.add(ctx, s, expand)
		if err != nil {
			d.recordFailure(p, err)
			return ids, err
		}
		ids = append(ids, id)
		tracker.Increment(1)
		metrics.SamplesIngested.WithLabelValues(d.name, parserName(p), "success").Inc()
	}

	d.finishIngest(ctx, tracker, len(ids))
	return ids, nil
}

// finishIngest logs the batch result, publishes the run's throughput, and
// refreshes the store gauge with a best-effort count.
func (d *Dataset) finishIngest(ctx context.Context, tracker *metrics.ThroughputTracker, added int) {
	d.logger.Info("ingest complete",
		zap.Int("samples", added),
		zap.Float64("samples_per_second", tracker.GetAndReset()))
	if n, err := d.store.Count(ctx); err == nil {
		metrics.StoreSamples.WithLabelValues(d.name).Set(float64(n))
	}
}

// parseImage runs one record through an unlabeled parser and builds the
// sample to adopt.
func (d *Dataset) parseImage(record interface{}, p parser.UnlabeledImageParser, tags []string) (*sample.Sample, error) {
	timer := metrics.NewTimer("parse_record")
	defer func() {
		metrics.ParseLatency.WithLabelValues(parserName(p)).
			Observe(float64(timer.Stop().Nanoseconds()))
	}()

	p.WithRecord(record)

	path, err := p.ImagePath()
	if err != nil {
		return nil, err
	}
	s := sample.New(path, sample.WithTags(tags...))

	if p.HasImageMetadata() {
		md, err := p.ImageMetadata()
		if err != nil {
			return nil, err
		}
		s.SetMetadata(md)
	}
	return s, nil
}

// parseLabeledImage runs one record through a labeled parser, staging its
// labels on the sample to adopt.
func (d *Dataset) parseLabeledImage(record interface{}, p parser.LabeledImageParser, labelField string, tags []string) (*sample.Sample, error) {
	s, err := d.parseImage(record, p, tags)
	if err != nil {
		return nil, err
	}

	parsed, err := p.Label()
	if err != nil {
		return nil, err
	}

	if parsed.Single != nil {
		if err := s.Set(labelField, parsed.Single, sample.SetOptions{}); err != nil {
			return nil, err
		}
	}
	for name, l := range parsed.Fields {
		if err := s.Set(name, l, sample.SetOptions{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// requireImagePaths checks the capability every ingest run depends on:
// samples reference media by path, so a parser that cannot produce paths
// cannot feed a dataset.
func requireImagePaths(p parser.SampleParser) error {
	if !p.HasImagePath() {
		return curerrors.New(curerrors.ErrorTypeIncompatibleParser,
			"parser does not produce image paths; samples require media on disk")
	}
	return nil
}

func (d *Dataset) logIngestStart(src Source, p parser.SampleParser) {
	fields := []zap.Field{zap.String("parser", parserName(p))}
	if sized, ok := src.(Sized); ok {
		fields = append(fields, zap.Int("records", sized.Len()))
	}
	d.logger.Info("ingest started", fields...)
}

func (d *Dataset) recordFailure(p parser.SampleParser, err error) {
	metrics.SamplesIngested.WithLabelValues(d.name, parserName(p), "failure").Inc()
	metrics.ParseFailures.WithLabelValues(parserName(p), string(curerrors.TypeOf(err))).Inc()
	d.logger.Error("ingest aborted", zap.Error(err))
}

// parserName derives a stable metric label from the parser's type.
func parserName(p parser.SampleParser) string {
	name := fmt.Sprintf("%T", p)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
