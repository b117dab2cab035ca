// GoBooth - photobooth strip and grid compositor.
//
// Usage:
//
//	gobooth render -project <project.json|bundle.zip> -o <file> [options]
//	gobooth catalog [-catalog <path>]
//	gobooth init [-o project.json] [-layout strip-4]
//	gobooth serve [-port 8080]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoBooth/clients/server"
	"github.com/xob0t/GoBooth/pkg/bundle"
	"github.com/xob0t/GoBooth/pkg/catalog"
	"github.com/xob0t/GoBooth/pkg/compositor"
	"github.com/xob0t/GoBooth/pkg/config"
	"github.com/xob0t/GoBooth/pkg/export"
	"github.com/xob0t/GoBooth/pkg/filter"
	"github.com/xob0t/GoBooth/pkg/loader"
	"github.com/xob0t/GoBooth/pkg/project"
	"github.com/xob0t/GoBooth/pkg/raster"
	"github.com/xob0t/GoBooth/pkg/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd string, args []string, stdout, stderr io.Writer) error {
	switch cmd {
	case "render":
		return runRender(args, stdout, stderr)
	case "catalog":
		return runCatalog(args, stdout, stderr)
	case "init":
		return runInit(args, stdout, stderr)
	case "serve":
		return runServe(args, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }
	return fs
}

// loadCatalog reads path, or returns the embedded catalog when path is empty.
// Validation warnings go to stderr.
func loadCatalog(path string, stderr io.Writer) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	for _, w := range catalog.Validate(cat, filter.Check) {
		fmt.Fprintf(stderr, "Warning: %s\n", w)
	}
	return cat, nil
}

// readProject loads a project JSON file or a project bundle.
func readProject(path string) (project.Project, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return bundle.Open(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return project.Project{}, fmt.Errorf("read project: %w", err)
	}
	var p project.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return project.Project{}, fmt.Errorf("parse project %s: %w", path, err)
	}
	if p.LayoutID == "" {
		p.LayoutID = project.DefaultLayoutID
	}
	p.Customization = p.Customization.Normalize()
	return p, nil
}

func runRender(args []string, stdout, stderr io.Writer) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	fs := newFlagSet("render", stderr)
	var (
		projectPath  string
		output       string
		quality      int
		fontPath     string
		catalogPath  string
		fullFidelity bool
		verbose      bool
	)
	fs.StringVar(&projectPath, "project", "", "Project JSON or .zip bundle")
	fs.StringVar(&output, "o", "", "Output file (.png, .jpg, .bmp, .tiff, .gif)")
	fs.StringVar(&output, "output", "", "Output file (.png, .jpg, .bmp, .tiff, .gif)")
	fs.IntVar(&quality, "quality", export.DefaultJPEGQuality, "JPEG quality 1-100")
	fs.StringVar(&fontPath, "font", cfg.FontPath, "TTF/OTF font for overlay text")
	fs.StringVar(&catalogPath, "catalog", cfg.CatalogPath, "Catalog JSON or .zip bundle")
	fs.BoolVar(&fullFidelity, "full-fidelity", cfg.FullFidelityFilters, "Apply every filter operation")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if projectPath == "" || output == "" {
		fs.Usage()
		return fmt.Errorf("-project and -o are required")
	}

	log := logrus.New()
	log.SetOutput(stderr)
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cat, err := loadCatalog(catalogPath, stderr)
	if err != nil {
		return err
	}
	p, err := readProject(projectPath)
	if err != nil {
		return err
	}
	fonts, err := raster.NewFontManager(fontPath, log)
	if err != nil {
		return fmt.Errorf("fonts: %w", err)
	}

	images := loader.New(loader.Options{
		Concurrency: cfg.LoadConcurrency,
		Timeout:     cfg.FetchTimeout,
		Origin:      cfg.CORSOrigin,
		AllowFiles:  true,
		BaseDir:     filepath.Dir(projectPath),
		Logger:      log,
		OnProgress: func(done, total int) {
			fmt.Fprintf(stderr, "\rLoading photos %d/%d", done, total)
			if done == total {
				fmt.Fprintln(stderr)
			}
		},
	})
	comp := compositor.New(cat, filter.NewMapper(cat), images,
		compositor.WithLogger(log),
		compositor.WithFullFidelity(fullFidelity),
	)

	fmt.Fprintf(stdout, "Rendering project: %s (%s)\n", p.Name, p.LayoutID)
	canvas := raster.NewCanvas(fonts)
	rep := comp.NewView(canvas).Render(context.Background(), p)
	if rep.Err != nil {
		return fmt.Errorf("render: %w", rep.Err)
	}
	if rep.Failed > 0 {
		fmt.Fprintf(stderr, "Warning: %d of %d photos failed to load\n", rep.Failed, rep.Requested)
	}

	if err := export.WriteFile(output, canvas, quality); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Done: %s\n", output)
	return nil
}

func runCatalog(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("catalog", stderr)
	var catalogPath string
	fs.StringVar(&catalogPath, "catalog", "", "Catalog JSON or .zip bundle (default: built in)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cat, err := loadCatalog(catalogPath, stderr)
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, catalog.Format(cat))
	return nil
}

func runInit(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("init", stderr)
	var out, name, layoutID string
	fs.StringVar(&out, "o", "project.json", "Output path for the sample project")
	fs.StringVar(&name, "name", "My Photobooth", "Project name")
	fs.StringVar(&layoutID, "layout", project.DefaultLayoutID, "Layout id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := catalog.Default().Layout(layoutID); err != nil {
		return err
	}

	p := project.New(name).WithLayout(layoutID)
	text := "Photobooth"
	p = p.WithCustomization(project.Partial{Text: &text})

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write project: %w", err)
	}

	fmt.Fprintf(stdout, "Created: %s\n", out)
	fmt.Fprintf(stdout, "Add photos to its \"photos\" list, then run: gobooth render -project %s -o booth.png\n", out)
	return nil
}

func runServe(args []string, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fs := newFlagSet("serve", stderr)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Port to listen on")
	fs.IntVar(&cfg.Port, "p", cfg.Port, "Port to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := config.SetupLogger(cfg)
	cat, err := loadCatalog(cfg.CatalogPath, stderr)
	if err != nil {
		return err
	}
	fonts, err := raster.NewFontManager(cfg.FontPath, log)
	if err != nil {
		return fmt.Errorf("fonts: %w", err)
	}
	st, err := store.New(cfg.StorageType, cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, cat, st, fonts, log)
	return server.Run(ctx, cfg, srv)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `GoBooth - Photobooth Compositor (Pure Go)

USAGE:
    gobooth render -project <path> -o <file> [options]
    gobooth catalog [-catalog <path>]
    gobooth init [options]
    gobooth serve [-port 8080]

RENDER:
    -project <path>        Project JSON or .zip bundle
    -o, -output <path>     Output file (.png, .jpg, .bmp, .tiff, .gif)
    -quality <1-100>       JPEG quality (default: 92)
    -font <path>           TTF/OTF font for overlay text (default: Go Regular)
    -catalog <path>        Layout and filter catalog (default: built in)
    -full-fidelity         Apply every filter operation, not just the dominant one

INIT:
    -o <path>              Output path (default: project.json)
    -name <name>           Project name
    -layout <id>           Layout id (default: strip-4)

SERVER:
    gobooth serve [-port 8080]     Start the HTTP API (configured by GOBOOTH_* env vars)

EXAMPLES:
    gobooth init -layout grid-2x2
    gobooth render -project project.json -o booth.png
    gobooth render -project party.zip -o booth.jpg -quality 85
    gobooth catalog
`)
}
