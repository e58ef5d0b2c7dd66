// certgen renders DATE certificates for a roster file without running the
// API server.
//
//	certgen --roster students.csv --template templates_certificates/date.pdf --out ./out
//	certgen --roster students.xlsx --config config/local.yaml --zip
//	certgen --roster students.csv --template https://cdn.example.com/date.pdf --single
//
// Without --single, students are printed three per page and one PDF is
// written per page. With --single, every student gets their own
// certificate in the single-student layout.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/aanand-mishra/certificates-api/internal/certificate"
	"github.com/aanand-mishra/certificates-api/internal/cloud"
	"github.com/aanand-mishra/certificates-api/internal/config"
	"github.com/aanand-mishra/certificates-api/internal/logger"
	"github.com/aanand-mishra/certificates-api/internal/output"
	"github.com/aanand-mishra/certificates-api/internal/roster"
	"github.com/aanand-mishra/certificates-api/internal/templates"
	"github.com/aanand-mishra/certificates-api/internal/types"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not read .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "certgen: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	rosterPath   string
	templatePath string
	configPath   string
	outDir       string
	env          string
	pageSize     string
	single       bool
	zip          bool
	timeout      time.Duration
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options

	flags := pflag.NewFlagSet("certgen", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.rosterPath, "roster", "r", "", "Roster file (.csv or .xlsx)")
	flags.StringVarP(&opts.templatePath, "template", "t", "", "Template PDF path or http(s) URL (overrides --config)")
	flags.StringVarP(&opts.configPath, "config", "c", "", "Configuration YAML (template and output settings)")
	flags.StringVarP(&opts.outDir, "out", "o", "", "Output directory (overrides --config)")
	flags.StringVar(&opts.env, "env", "dev", "Log format: dev|staging|prod")
	flags.StringVar(&opts.pageSize, "page-size", "", "Force a page size such as Letter or A4 (default: the template's own size)")
	flags.BoolVar(&opts.single, "single", false, "One certificate per student (single-student layout)")
	flags.BoolVar(&opts.zip, "zip", false, "Write a single zip archive instead of separate PDFs")
	flags.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Overall time limit")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: certgen --roster FILE [--template PDF | --config YAML] [flags]\n\nFlags:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return err
	}
	if opts.rosterPath == "" {
		flags.Usage()
		return errors.New("--roster is required")
	}

	log := logger.New(opts.env, stderr)

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	students, err := readRoster(opts.rosterPath)
	if err != nil {
		return err
	}
	log.Info("roster loaded", slog.String("file", opts.rosterPath), slog.Int("students", len(students)))

	source, sink, err := resolve(ctx, opts)
	if err != nil {
		return err
	}

	// --single renders student by student; fetch the template only once.
	if opts.single {
		source = templates.Cached(source)
	}

	renderOpts := certificate.DefaultOptions()
	renderOpts.PageSize = opts.pageSize
	renderer := certificate.NewRenderer(source, log, renderOpts)

	files, err := render(ctx, renderer, students, opts.single)
	if err != nil {
		return err
	}

	if opts.zip {
		archive, err := output.Zip(files, time.Now())
		if err != nil {
			return err
		}
		files = []output.File{{Name: "date-certificates-" + output.NewBatchID() + ".zip", Data: archive}}
	}

	locations, err := output.SaveAll(ctx, sink, files)
	if err != nil {
		return err
	}
	for _, loc := range locations {
		fmt.Fprintln(stdout, loc)
	}

	log.Info("certificates written", slog.Int("files", len(locations)))
	return nil
}

func readRoster(path string) ([]types.Student, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	students, err := roster.Parse(path, f)
	if err != nil {
		return nil, fmt.Errorf("read roster %s: %w", path, err)
	}
	if len(students) == 0 {
		return nil, fmt.Errorf("roster %s has no students", path)
	}
	return students, nil
}

// resolve combines the optional config file with the command-line
// overrides into a template source and an output sink.
func resolve(ctx context.Context, opts options) (templates.Source, output.Sink, error) {
	var cfg *config.Config
	if opts.configPath != "" {
		var err error
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return nil, nil, err
		}
	}

	var source templates.Source
	switch {
	case strings.HasPrefix(opts.templatePath, "http://"), strings.HasPrefix(opts.templatePath, "https://"):
		source = templates.HTTPSource{URL: opts.templatePath}
	case opts.templatePath != "":
		source = templates.FileSource{Path: opts.templatePath}
	case cfg == nil:
		return nil, nil, errors.New("either --template or --config is required")
	}

	var sink output.Sink
	if opts.outDir != "" {
		sink = output.DirSink{Dir: opts.outDir}
	}

	if cfg == nil {
		if sink == nil {
			sink = output.DirSink{Dir: "."}
		}
		return source, sink, nil
	}

	var client *s3.Client
	if (source == nil && cfg.Template.Kind == config.TemplateKindS3) || (sink == nil && cfg.Output.S3Bucket != "") {
		var err error
		client, err = cloud.NewS3Client(ctx, cfg.AWS)
		if err != nil {
			return nil, nil, err
		}
	}

	if source == nil {
		var getter templates.GetObjectAPI
		if client != nil {
			getter = client
		}
		var err error
		source, err = templates.FromConfig(cfg.Template, getter)
		if err != nil {
			return nil, nil, err
		}
	}

	if sink == nil {
		var err error
		sink, err = output.FromConfig(cfg.Output, client)
		if err != nil {
			return nil, nil, err
		}
	}

	return source, sink, nil
}

func render(ctx context.Context, renderer *certificate.Renderer, students []types.Student, single bool) ([]output.File, error) {
	if !single {
		docs, err := renderer.RenderBatch(ctx, students)
		if err != nil {
			return nil, err
		}

		batchID := output.NewBatchID()
		files := make([]output.File, len(docs))
		for i, doc := range docs {
			files[i] = output.File{Name: output.BatchName(batchID, doc.Index), Data: doc.Data}
		}
		return files, nil
	}

	// Roster students have no database id; number them by roster position.
	files := make([]output.File, 0, len(students))
	for i, s := range students {
		data, err := renderer.RenderSingle(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("student %d (%s %s): %w", i+1, s.FirstName, s.LastName, err)
		}
		files = append(files, output.File{Name: output.StudentName(int64(i + 1)), Data: data})
	}
	return files, nil
}
