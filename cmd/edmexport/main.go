package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/davecgh/go-spew/spew"

	edm "github.com/flywave/go-edm"
	"github.com/flywave/go-edm/internal/config"
)

func main() {
	var (
		configPath  = flag.String("config", "", "TOML config file")
		inPath      = flag.String("in", "", "glTF/GLB scene to export")
		nodeName    = flag.String("node", "", "root node to export (default: first node of the default scene)")
		outPath     = flag.String("out", "", "output .EDM path (default: <node>.EDM next to the input)")
		uvChannel   = flag.Int("uv", 0, "mapping channel sampled for UVs and tangents")
		logLevel    = flag.String("log", "", "log level (debug, info, warn, error)")
		verbose     = flag.Bool("v", false, "debug logging")
		inspectPath = flag.String("inspect", "", "read an .EDM file and print a summary")
		gltfPath    = flag.String("gltf", "", "with -inspect: also write a GLB preview")
		dump        = flag.Bool("dump", false, "with -inspect: dump the decoded structure")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "edmexport",
	})

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			logger.Fatal("loading config", "err", err)
		}
	}
	cfg.Resolve(config.Flags{UVChannel: *uvChannel, LogLevel: *logLevel, Verbose: *verbose})
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", "err", err)
	}
	logger.SetLevel(cfg.Level())

	switch {
	case *inspectPath != "":
		if err := inspect(logger, *inspectPath, *gltfPath, *dump); err != nil {
			logger.Fatal("inspect failed", "path", *inspectPath, "err", err)
		}
	case *inPath != "":
		if err := export(logger, &cfg, *inPath, *nodeName, *outPath); err != nil {
			logger.Fatal("export failed", "in", *inPath, "err", err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func export(logger *log.Logger, cfg *config.Config, in, node, out string) error {
	scene, err := edm.OpenGltfScene(in)
	if err != nil {
		return err
	}
	scene.RootName = node
	scene.Logger = logger

	if out == "" {
		root, err := scene.SelectedRoot()
		if err != nil {
			return err
		}
		out = filepath.Join(filepath.Dir(in), root.Name()+edm.EDM_EXT)
	}

	ex := edm.NewExporter()
	ex.UVChannel = cfg.UVChannel
	ex.Tangents = cfg.TangentComputer()
	ex.Logger = logger
	_, err = ex.Export(scene, out)
	return err
}

func inspect(logger *log.Logger, path, gltfOut string, dump bool) error {
	s, err := edm.StructureReadFrom(path)
	if err != nil {
		return err
	}
	logger.Info("structure", "name", s.Name, "parts", len(s.Parts), "bytes", s.Size())
	for i, p := range s.Parts {
		logger.Info("part", "index", i, "name", p.Name, "vertices", p.VertexCount(),
			"triangles", p.IndexCount(), "bbox", fmt.Sprint(p.BoundingBox()))
	}
	if dump {
		spew.Fdump(os.Stdout, s)
	}
	if gltfOut == "" {
		return nil
	}
	doc, err := edm.StructureToGltf(s)
	if err != nil {
		return err
	}
	bt, err := edm.GetGltfBinary(doc, 8)
	if err != nil {
		return err
	}
	if !strings.EqualFold(filepath.Ext(gltfOut), ".glb") {
		logger.Warn("writing binary glTF", "path", gltfOut)
	}
	return os.WriteFile(gltfOut, bt, 0o644)
}
