package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/curateml/curate/pkg/config"
	"github.com/curateml/curate/pkg/dataset"
	"github.com/curateml/curate/pkg/logger"
	"github.com/curateml/curate/pkg/media"
	"github.com/curateml/curate/pkg/parser"
	"github.com/curateml/curate/pkg/store"
)

var version = "0.1.0"

// manifestEntry is one record of an ingest manifest: an image path plus an
// optional label payload whose shape depends on the parser.
type manifestEntry struct {
	Path   string      `json:"path"`
	Target interface{} `json:"target"`
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	var configFile string

	root := &cobra.Command{
		Use:   "curate",
		Short: "Curate - dataset curation for labeled images",
		Long: `Curate ingests images and their labels into named datasets with
dynamically typed schemas, backed by an in-memory or MongoDB store.`,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML configuration file (optional)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Curate v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	ingest := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest images into a dataset",
	}
	root.AddCommand(ingest)

	// ingest images
	var imagesDir, imagesPattern, schemaOut string
	imagesCmd := &cobra.Command{
		Use:   "images",
		Short: "Ingest unlabeled images",
		Long: `Ingest unlabeled images from a directory or a glob pattern.

Example:
  curate ingest images --dir ./data/images --name quickstart`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			src, err := imageSource(imagesDir, imagesPattern, cfg.Ingest.Recursive)
			if err != nil {
				return err
			}
			return runIngest(cfg, schemaOut, "images", func(ctx context.Context, d *dataset.Dataset) ([]string, error) {
				return d.AddImages(ctx, src, parser.NewImageParser(),
					dataset.AddImagesOptions{Tags: cfg.Ingest.Tags})
			})
		},
	}
	imagesCmd.Flags().StringVar(&imagesDir, "dir", "", "Directory of images to ingest")
	imagesCmd.Flags().StringVar(&imagesPattern, "pattern", "", "Glob pattern of images to ingest")
	ingest.AddCommand(imagesCmd)

	// ingest classification
	var clfManifest, clfClasses string
	clfCmd := &cobra.Command{
		Use:   "classification",
		Short: "Ingest classified images from a manifest",
		Long: `Ingest labeled images from a JSON manifest of {path, target} entries,
where target is a class id or a label string.

Example:
  curate ingest classification --manifest manifest.json --classes cat,dog`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			src, err := manifestSource(clfManifest)
			if err != nil {
				return err
			}
			p := parser.NewClassificationParser(splitClasses(clfClasses))
			return runIngest(cfg, schemaOut, "classification", func(ctx context.Context, d *dataset.Dataset) ([]string, error) {
				return d.AddLabeledImages(ctx, src, p, labeledOptions(cfg))
			})
		},
	}
	clfCmd.Flags().StringVar(&clfManifest, "manifest", "", "Path to JSON manifest (required)")
	clfCmd.Flags().StringVar(&clfClasses, "classes", "", "Comma-separated class list for integer targets")
	_ = clfCmd.MarkFlagRequired("manifest")
	ingest.AddCommand(clfCmd)

	// ingest detection
	var detManifest, detClasses string
	var detAbsolute bool
	detCmd := &cobra.Command{
		Use:   "detection",
		Short: "Ingest detected objects from a manifest",
		Long: `Ingest labeled images from a JSON manifest of {path, target} entries,
where target is a list of objects with label and bounding_box keys.

Example:
  curate ingest detection --manifest manifest.json --absolute`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			src, err := manifestSource(detManifest)
			if err != nil {
				return err
			}
			p := parser.NewDetectionParser(parser.DetectionConfig{
				ConfidenceKey: "confidence",
				AttributesKey: "attributes",
				Classes:       splitClasses(detClasses),
				Absolute:      detAbsolute,
			})
			return runIngest(cfg, schemaOut, "detection", func(ctx context.Context, d *dataset.Dataset) ([]string, error) {
				return d.AddLabeledImages(ctx, src, p, labeledOptions(cfg))
			})
		},
	}
	detCmd.Flags().StringVar(&detManifest, "manifest", "", "Path to JSON manifest (required)")
	detCmd.Flags().StringVar(&detClasses, "classes", "", "Comma-separated class list for integer targets")
	detCmd.Flags().BoolVar(&detAbsolute, "absolute", false, "Treat bounding boxes as absolute pixel coordinates")
	_ = detCmd.MarkFlagRequired("manifest")
	ingest.AddCommand(detCmd)

	ingest.PersistentFlags().StringVar(&schemaOut, "export-schema", "", "Write the resulting schema to this JSON file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig builds the effective configuration: defaults, then the YAML
// file when given.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.NewConfig("")
	if path != "" {
		if err := config.Load(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		Encoding:    cfg.Logging.Encoding,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildStore constructs the configured sample store.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMongo:
		collection := cfg.Store.Mongo.Collection
		if collection == "" {
			collection = cfg.Dataset.Name
		}
		ctx, cancel := context.WithTimeout(ctx, cfg.Store.Mongo.ConnectTimeout)
		defer cancel()
		return store.NewMongoStore(ctx, store.MongoConfig{
			URI:         cfg.Store.Mongo.URI,
			Database:    cfg.Store.Mongo.Database,
			Collection:  collection,
			AutoPersist: cfg.Store.AutoPersist,
		}, logger.Get())
	default:
		return store.NewMemoryStore(
			store.WithAutoPersist(cfg.Store.AutoPersist),
			store.WithLogger(logger.Get())), nil
	}
}

// runIngest wires up the dataset and runs one ingest batch.
func runIngest(cfg *config.Config, schemaOut, parserName string, ingest func(context.Context, *dataset.Dataset) ([]string, error)) error {
	ctx := context.Background()

	st, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	d := dataset.New(cfg.Dataset.Name, st, dataset.WithLogger(logger.Get()))

	start := time.Now()
	ctx = context.WithValue(ctx, logger.DatasetKey, d.Name())
	ctx = context.WithValue(ctx, logger.ParserKey, parserName)
	ctx = context.WithValue(ctx, logger.BatchIDKey, start.Format("20060102-150405"))
	log := logger.WithContext(ctx)
	ids, err := ingest(ctx, d)
	if err != nil {
		return fmt.Errorf("ingest failed after %d samples: %w", len(ids), err)
	}

	log.Info("ingest finished",
		zap.Int("samples", len(ids)),
		zap.Int("schema_fields", d.Schema().Len()),
		zap.Duration("elapsed", time.Since(start)))
	fmt.Printf("Ingested %d samples into dataset %q\n", len(ids), d.Name())

	if schemaOut != "" {
		data, err := d.Schema().ExportJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(schemaOut, data, 0o644); err != nil {
			return fmt.Errorf("failed to write schema file: %w", err)
		}
	}
	return nil
}

func labeledOptions(cfg *config.Config) dataset.AddLabeledImagesOptions {
	return dataset.AddLabeledImagesOptions{
		LabelField:   cfg.Ingest.LabelField,
		Tags:         cfg.Ingest.Tags,
		ExpandSchema: &cfg.Ingest.ExpandSchema,
	}
}

// imageSource builds a source from whichever of --dir and --pattern was
// given.
func imageSource(dir, pattern string, recursive bool) (dataset.Source, error) {
	switch {
	case dir != "" && pattern != "":
		return nil, fmt.Errorf("--dir and --pattern are mutually exclusive")
	case dir != "":
		return dataset.FromImageDir(dir, recursive)
	case pattern != "":
		return dataset.FromImagePatterns(pattern)
	}
	return nil, fmt.Errorf("one of --dir or --pattern is required")
}

// manifestSource reads a JSON manifest into a source of labeled tuples.
func manifestSource(path string) (dataset.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var entries []manifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	tuples := make([]parser.Tuple, len(entries))
	for i, e := range entries {
		tuples[i] = parser.Tuple{Image: media.FromPath(e.Path), Target: e.Target}
	}
	return dataset.FromTuples(tuples), nil
}

func splitClasses(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
