package generate

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/jshufro/abi-gen/internal/files"
	"github.com/jshufro/abi-gen/internal/logger"
)

// Watch regenerates bindings as descriptors, the main template or partials change, until ctx is
// done. Descriptor changes go through the usual staleness check; template changes recompile and
// regenerate everything. Errors are logged and don't stop the loop.
func (g *Generator) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}
	defer w.Close()

	for _, dir := range g.watchDirs() {
		if err := w.Add(dir); err != nil {
			return errors.Wrapf(err, "failed to watch %s", dir)
		}
		g.logger.Debugw("Watching", logger.FieldFile, dir)
	}
	g.logger.Infow("Watching for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			g.handleEvent(event)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			g.logger.Warnw("Watcher error", logger.FieldError, err)
		}
	}
}

func (g *Generator) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	switch {
	case g.isTemplate(event.Name):
		g.logger.Infow("Template changed, regenerating all", logger.FieldFile, event.Name)
		if err := g.compile(); err != nil {
			g.logger.Errorw("Failed to compile templates", logger.FieldError, err)
			return
		}
		abiFiles, err := g.Descriptors()
		if err != nil {
			g.logger.Errorw("Failed to resolve ABI files", logger.FieldError, err)
			return
		}
		for _, abiFile := range abiFiles {
			if _, _, err := g.ProcessFile(abiFile, true); err != nil {
				g.logger.Errorw("Failed to generate", logger.FieldFile, abiFile, logger.FieldError, err)
			}
		}
	case g.isDescriptor(event.Name):
		if _, _, err := g.ProcessFile(event.Name, g.cfg.Force); err != nil {
			g.logger.Errorw("Failed to generate", logger.FieldFile, event.Name, logger.FieldError, err)
		}
	}
}

func (g *Generator) isDescriptor(path string) bool {
	ok, err := doublestar.PathMatch(filepath.Clean(g.cfg.ABIs), filepath.Clean(path))
	return err == nil && ok
}

func (g *Generator) isTemplate(path string) bool {
	path = filepath.Clean(path)
	if path == filepath.Clean(g.cfg.Template) {
		return true
	}
	if g.cfg.Partials == "" {
		return false
	}
	ok, err := doublestar.PathMatch(filepath.Clean(g.cfg.Partials), path)
	return err == nil && ok
}

// watchDirs is every directory holding a descriptor or template, plus the static base of each glob
func (g *Generator) watchDirs() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if _, ok := seen[dir]; ok {
			return
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return
		}
		seen[dir] = struct{}{}
		out = append(out, dir)
	}

	for _, pattern := range []string{g.cfg.ABIs, g.cfg.Partials} {
		if pattern == "" {
			continue
		}
		base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
		add(filepath.FromSlash(base))
		matches, err := files.Resolve(pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			add(filepath.Dir(m))
		}
	}
	add(filepath.Dir(g.cfg.Template))

	return out
}
