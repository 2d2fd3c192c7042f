// Command xrdgo scrapes XRD records, builds datasets and prints model specs.
//
//	xrdgo [-config xrdgo.yaml] scrape
//	xrdgo [-config xrdgo.yaml] build
//	xrdgo [-config xrdgo.yaml] spec [-classes n]
//	xrdgo [-config xrdgo.yaml] snapshots
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/xrdgo"
	"github.com/hupe1980/xrdgo/codec"
	"github.com/hupe1980/xrdgo/snapshot"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, *configPath, flag.Arg(0), flag.Args()[1:])
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config file] scrape|build|spec|snapshots [flags]\n", os.Args[0])
	flag.PrintDefaults()
}

func loadConfig(path string) (xrdgo.Config, error) {
	if path == "" {
		cfg := xrdgo.DefaultConfig()
		cfg.MaterialsProject.APIKey = os.Getenv(xrdgo.APIKeyEnv)
		return cfg, cfg.Validate()
	}
	return xrdgo.LoadConfig(path)
}

func run(ctx context.Context, configPath, cmd string, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := newPrometheusCollector(reg)
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics server error: %v", err)
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	p, err := xrdgo.New(ctx, cfg, xrdgo.WithMetricsCollector(metrics))
	if err != nil {
		return err
	}
	defer p.Close()

	inFlight, started := controllerCollectors(p.Controller())
	reg.MustRegister(inFlight, started)

	switch cmd {
	case "scrape":
		return runScrape(ctx, p, args)
	case "build":
		return runBuild(ctx, p, args)
	case "spec":
		return runSpec(p, args)
	case "snapshots":
		return runSnapshots(ctx, p)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runScrape(ctx context.Context, p *xrdgo.Pipeline, args []string) error {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	src, err := p.Source(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	m, report, err := p.Scrape(ctx, src)
	if err != nil {
		return err
	}
	fmt.Printf("published %s: %d entries, %d vectors, %d skipped, %d queries\n",
		m.Name, report.Assembled, report.Vectors, len(report.Skipped), src.Queries())
	return nil
}

func runBuild(ctx context.Context, p *xrdgo.Pipeline, args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ds, err := p.BuildDataset(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "stage\tsamples\tclasses\tduration\n")
	for _, s := range ds.Stages {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", s.Stage, s.Samples, s.Classes, s.Duration)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("classes: %v\ntrain: %d test: %d\n", ds.Classes, ds.Train.Len(), ds.Test.Len())
	return nil
}

func runSpec(p *xrdgo.Pipeline, args []string) error {
	fs := flag.NewFlagSet("spec", flag.ExitOnError)
	classes := fs.Int("classes", 5, "Number of output classes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	spec, err := p.ModelSpec(*classes)
	if err != nil {
		return err
	}
	data, err := codec.Pretty(codec.MustByName(p.Config().Storage.Codec), spec)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func runSnapshots(ctx context.Context, p *xrdgo.Pipeline) error {
	manifests, err := snapshot.List(ctx, p.BlobStore())
	if err != nil {
		return err
	}
	current, err := snapshot.Current(ctx, p.BlobStore())
	if err != nil && !errors.Is(err, snapshot.ErrNoCurrent) {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "\tname\tcreated\tentries\tsize\tcompression\n")
	for _, m := range manifests {
		mark := ""
		if m.Name == current {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n", mark, m.Name, m.CreatedAt.Format(time.RFC3339), m.Entries, m.Size, m.Compression)
	}
	return w.Flush()
}
