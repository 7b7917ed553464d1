package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Luzifer/go_helpers/v2/str"
	"github.com/Luzifer/rconfig/v2"
	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/red031000/nitrog3d/gx"
	"github.com/red031000/nitrog3d/nsbmd"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
	formatSpew = "spew"
)

var (
	cfg = struct {
		Format         string   `flag:"format,f" default:"text" description:"Output format (text, json, yaml, spew)"`
		Listen         string   `flag:"listen" default:"" description:"Serve decoded files over HTTP on this address instead of printing them"`
		LogLevel       string   `flag:"log-level" default:"info" description:"Log level (debug, info, warn, error, fatal)"`
		Models         []string `flag:"model,m" default:"" description:"Only output models with these names (can be repeated)"`
		VersionAndExit bool     `flag:"version" default:"false" description:"Prints current version and exits"`
		Workers        int      `flag:"workers" default:"1" description:"Number of models decoded concurrently per file"`
	}{}

	spewConfig = spew.ConfigState{Indent: "  ", DisableCapacities: true, DisablePointerAddresses: true, SortKeys: true}

	version = "dev"
)

func initApp() (err error) {
	if err = rconfig.ParseAndValidate(&cfg); err != nil {
		return fmt.Errorf("parsing CLI options: %w", err)
	}

	l, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log-level: %w", err)
	}
	logrus.SetLevel(l)

	if !str.StringInSlice(cfg.Format, []string{formatText, formatJSON, formatYAML, formatSpew}) {
		return fmt.Errorf("unknown output format %q", cfg.Format)
	}

	return nil
}

func main() {
	var err error
	if err = initApp(); err != nil {
		logrus.WithError(err).Fatal("initializing app")
	}

	if cfg.VersionAndExit {
		fmt.Printf("nitrog3d %s\n", version) //nolint:forbidigo
		os.Exit(0)
	}

	if len(rconfig.Args()) < 2 { //nolint:mnd
		logrus.Fatal("no model file given")
	}

	files := make(fileStore)
	for _, name := range rconfig.Args()[1:] {
		c, err := loadFile(name)
		if err != nil {
			logrus.WithError(err).WithField("file", name).Fatal("decoding model file")
		}
		files[filepath.Base(name)] = filterModels(c, cfg.Models)

		logrus.WithFields(logrus.Fields{
			"file":      name,
			"no_models": len(c.Models),
		}).Debug("decoded model file")

		if cfg.Listen != "" {
			continue
		}

		if err = writeContainer(os.Stdout, cfg.Format, filepath.Base(name), files[filepath.Base(name)]); err != nil {
			logrus.WithError(err).Fatal("writing output")
		}
	}

	if cfg.Listen == "" {
		return
	}

	if err = runServer(cfg.Listen, files); err != nil {
		logrus.WithError(err).Fatal("running HTTP server")
	}
}

func loadFile(name string) (*nsbmd.Container, error) {
	data, err := os.ReadFile(name) //#nosec:G304 // Intended to open arbitrary files
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	c, err := nsbmd.Parse(data, nsbmd.Config{
		Reporter: nsbmd.NewLogrusReporter(logrus.WithField("file", filepath.Base(name))),
		Workers:  cfg.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("parsing container: %w", err)
	}

	return c, nil
}

// filterModels returns c limited to the named models, all of them when
// names is empty.
func filterModels(c *nsbmd.Container, names []string) *nsbmd.Container {
	names = nonEmpty(names)
	if len(names) == 0 {
		return c
	}

	out := *c
	out.Models = nil
	for _, m := range c.Models {
		if str.StringInSlice(m.Name, names) {
			out.Models = append(out.Models, m)
		}
	}
	return &out
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func writeContainer(w io.Writer, format, name string, c *nsbmd.Container) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}

	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2) //nolint:mnd
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("closing YAML encoder: %w", err)
		}

	case formatSpew:
		spewConfig.Fdump(w, c)

	default:
		writeSummary(w, name, c)
	}

	return nil
}

func writeSummary(w io.Writer, name string, c *nsbmd.Container) {
	fmt.Fprintf(w, "%s: %d model(s), textures: %t\n", name, len(c.Models), c.HasTextures)
	for _, m := range c.Models {
		fmt.Fprintf(w, "  model %s: %d node(s), %d material(s), %d shape(s), %d vertices, %d polygons\n",
			m.Name, len(m.Nodes), len(m.Materials), len(m.Shapes), m.Options.VertexCount, m.Options.PolygonCount)

		for _, n := range m.Nodes {
			fmt.Fprintf(w, "    node %s: translation %v scale %v\n", n.Name, n.Translation, n.Scale)
		}
		for _, mat := range m.Materials {
			fmt.Fprintf(w, "    material %s: %s %dx%d flags [%s] textures %d palettes %d\n",
				mat.Name, mat.TexImageParams.Format, mat.TexImageParams.Width, mat.TexImageParams.Height,
				mat.Flags, len(mat.TextureBindings), len(mat.PaletteBindings))
		}
		for _, s := range m.Shapes {
			fmt.Fprintf(w, "    shape %s: %d command(s) in %d word(s)\n",
				s.Name, len(gx.Flatten(s.DisplayList)), len(s.DisplayList))
		}
	}
}
