// Package generate drives one abi-gen run: it compiles the templates once, then parses,
// normalizes, renders and writes every matching descriptor file in turn.
package generate

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/jshufro/abi-gen/internal/config"
	"github.com/jshufro/abi-gen/internal/descriptor"
	"github.com/jshufro/abi-gen/internal/files"
	"github.com/jshufro/abi-gen/internal/logger"
	"github.com/jshufro/abi-gen/internal/render"
	"github.com/jshufro/abi-gen/internal/typemap"
	"go.uber.org/zap"
)

var (
	ErrNoDescriptors   = errors.New("no ABI files found")
	ErrDuplicateOutput = errors.New("descriptors share an output file")
)

// Outcome of processing a single descriptor
type Outcome int

const (
	Created Outcome = iota
	Skipped
)

func (o Outcome) String() string {
	if o == Skipped {
		return "skipped"
	}
	return "created"
}

// Report lists the outputs written and skipped by a run
type Report struct {
	Created []string
	Skipped []string
}

// Generator turns descriptor files into rendered bindings using one compiled template
type Generator struct {
	cfg      *config.Config
	mapper   *typemap.Mapper
	registry *render.Registry
	tpl      *render.Template
	logger   *zap.SugaredLogger
}

// New registers the partials and compiles the main template
func New(cfg *config.Config, log *zap.SugaredLogger) (*Generator, error) {
	g := &Generator{
		cfg:    cfg,
		mapper: typemap.New(cfg.BackendValue()),
		logger: log,
	}
	if err := g.compile(); err != nil {
		return nil, err
	}
	return g, nil
}

// compile (re)builds the registry and main template from disk
func (g *Generator) compile() error {
	registry := render.NewRegistry(g.logger)

	if g.cfg.Partials != "" {
		partials, err := files.Resolve(g.cfg.Partials)
		if err != nil {
			return err
		}
		g.logger.Infow("Found partial templates", logger.FieldCount, len(partials))
		if err := registry.LoadFragments(partials); err != nil {
			return err
		}
	}

	mainTpl, err := files.ReadNamed(g.cfg.Template)
	if err != nil {
		return err
	}
	tpl, err := registry.Compile(mainTpl.Name, string(mainTpl.Content), render.Helpers(g.mapper))
	if err != nil {
		return err
	}

	g.registry = registry
	g.tpl = tpl
	g.logger.Debugw("Compiled template", logger.FieldFile, g.cfg.Template, "partials", registry.Names())
	return nil
}

// Descriptors resolves the --abis glob. Matching nothing is an error.
func (g *Generator) Descriptors() ([]string, error) {
	abiFiles, err := files.Resolve(g.cfg.ABIs)
	if err != nil {
		return nil, err
	}
	if len(abiFiles) == 0 {
		return nil, errors.WithHint(
			errors.Wrapf(ErrNoDescriptors, "pattern '%s'", g.cfg.ABIs),
			"make sure you've passed the correct folder name and that the files have *.json extensions",
		)
	}
	return abiFiles, nil
}

// Run processes every descriptor, stopping at the first error
func (g *Generator) Run(ctx context.Context) (*Report, error) {
	abiFiles, err := g.Descriptors()
	if err != nil {
		return nil, err
	}
	g.logger.Infow("Found ABI files", logger.FieldCount, len(abiFiles))

	if err := g.checkOutputs(abiFiles); err != nil {
		return nil, err
	}

	if err := files.EnsureDir(g.cfg.Output); err != nil {
		return nil, err
	}

	report := &Report{
		Created: make([]string, 0, len(abiFiles)),
		Skipped: make([]string, 0),
	}
	for _, abiFile := range abiFiles {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outPath, outcome, err := g.ProcessFile(abiFile, g.cfg.Force)
		if err != nil {
			return report, err
		}
		switch outcome {
		case Created:
			report.Created = append(report.Created, outPath)
		case Skipped:
			report.Skipped = append(report.Skipped, outPath)
		}
	}

	return report, nil
}

// checkOutputs fails if two descriptors would be written to the same output file
func (g *Generator) checkOutputs(abiFiles []string) error {
	owners := make(map[string]string, len(abiFiles))
	for _, abiFile := range abiFiles {
		outPath := g.OutputPath(abiFile)
		if other, ok := owners[outPath]; ok {
			return errors.WithHint(
				errors.Wrapf(ErrDuplicateOutput, "%s and %s both generate %s", other, abiFile, outPath),
				"rename one of the ABI files or narrow the --abis pattern",
			)
		}
		owners[outPath] = abiFile
	}
	return nil
}

// OutputPath is where the bindings for abiFile are written
func (g *Generator) OutputPath(abiFile string) string {
	return filepath.Join(g.cfg.Output, files.OutputFileName(files.NameFromPath(abiFile), g.cfg.Extension))
}

// ProcessFile generates the bindings for one descriptor. Unless force is set, an output that is
// already newer than its descriptor is left alone.
func (g *Generator) ProcessFile(abiFile string, force bool) (string, Outcome, error) {
	outPath := g.OutputPath(abiFile)

	named, err := files.ReadNamed(abiFile)
	if err != nil {
		return outPath, Created, err
	}
	g.logger.Infow("Processing", logger.FieldContract, named.Name)

	doc, err := descriptor.Parse(abiFile, named.Content)
	if err != nil {
		return outPath, Created, err
	}
	g.logger.Debugw("Extracted ABI", logger.FieldFile, abiFile, logger.FieldShape, doc.Shape)

	if !force {
		upToDate, err := files.IsUpToDate(abiFile, outPath)
		if err != nil {
			return outPath, Created, err
		}
		if upToDate {
			g.logger.Infow("Already up to date", logger.FieldOutput, outPath)
			return outPath, Skipped, nil
		}
	}

	data, err := descriptor.Normalize(named.Name, doc.Entries)
	if err != nil {
		return outPath, Created, errors.Wrapf(err, "%s", abiFile)
	}
	data.NetworkID = g.cfg.NetworkID
	data.NetworkAddress, err = doc.NetworkAddress(g.cfg.NetworkID)
	if err != nil {
		return outPath, Created, err
	}

	code, err := g.tpl.Render(data)
	if err != nil {
		return outPath, Created, errors.Wrapf(err, "%s", abiFile)
	}

	if err := files.WriteFile(outPath, code); err != nil {
		return outPath, Created, err
	}
	g.logger.Infow("Created", logger.FieldOutput, outPath)

	return outPath, Created, nil
}
