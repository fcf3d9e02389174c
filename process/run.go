// Package process implements pretty subcommand: it finds books and
// standalone documents and pretty prints them.
package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gosimple/slug"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"ebpretty/epub"
	"ebpretty/pretty"
	"ebpretty/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("pretty")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	// empty destination means in place
	dst := cmd.Args().Get(1)
	if len(dst) > 0 {
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Overwrite = cmd.Bool("overwrite")
	env.FixOnly = cmd.Bool("fix-only")

	p, err := env.Printer()
	if err != nil {
		return fmt.Errorf("unable to prepare printer: %w", err)
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Bool("fix-only", env.FixOnly))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, p, log)
}

// process determines the input type (directory, book or standalone document)
// and handles it accordingly.
func process(ctx context.Context, src, dst string, p *pretty.Printer, log *zap.Logger) error {
	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("input source was not found (%s): %w", src, err)
	}

	if fi.Mode().IsDir() {
		if err := processDir(ctx, src, dst, p, log); err != nil {
			return fmt.Errorf("unable to process directory: %w", err)
		}
		return nil
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("unexpected path mode for (%s)", src)
	}

	name := filepath.Base(src)
	switch {
	case isBookFile(src):
		return processBook(ctx, src, name, dst, p, log)
	case documentKind(src) != kindUnknown:
		return processFile(ctx, src, name, dst, p, log)
	}
	return fmt.Errorf("input was not recognized as book or document (%s)", src)
}

// processDir walks directory tree finding books and processes them.
func processDir(ctx context.Context, dir, dst string, p *pretty.Printer, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if !isBookFile(path) {
			log.Debug("Skipping file, not recognized as book", zap.String("file", path))
			return nil
		}

		count++

		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processBook(ctx, path, rel, dst, p, log); err != nil {
			log.Error("Unable to process book", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	return err
}

// processBook pretty prints (or only fixes) single book. "rel" is path of the book relative
// to the source it was found under, "dst" is destination directory, empty
// when book is rewritten in place.
func processBook(ctx context.Context, path, rel, dst string, p *pretty.Printer, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Info("Book processing starting", zap.String("from", path))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Book processing ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("processing panic: %v", r)
		} else if rerr == nil {
			log.Info("Book processing completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	if outputName, rerr = prepareOutput(path, rel, dst, env.Overwrite, log); rerr != nil {
		return rerr
	}

	b, err := epub.Open(path, log)
	if err != nil {
		return err
	}
	b.WithIndent(env.Cfg.Document.Indent)

	run := p.All
	if env.FixOnly {
		run = p.FixAll
	}
	if err := run(ctx, b); err != nil {
		// as much as possible was done, still write the result
		log.Warn("Some documents were not processed", zap.String("file", path), zap.Error(err))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.Commit(outputName, env.Cfg.Document.FixZip); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}

	if env.Rpt != nil {
		env.Rpt.Store(reportName(rel), outputName)
	}
	return nil
}

// processFile pretty prints standalone document.
func processFile(ctx context.Context, path, rel, dst string, p *pretty.Printer, log *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)

	k := documentKind(path)
	if env.FixOnly && k != kindContent {
		return fmt.Errorf("only content documents could be fixed (%s)", path)
	}

	outputName, err := prepareOutput(path, rel, dst, env.Overwrite, log)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read document: %w", err)
	}

	var data []byte
	switch k {
	case kindContent:
		if env.FixOnly {
			data, err = p.FixHTML(raw)
			break
		}
		data, err = p.HTML(raw)
	case kindPackage:
		data, err = p.XML(raw, true)
	case kindXML:
		data, err = p.XML(raw, false)
	case kindStyle:
		data, err = p.CSS(raw)
	}
	if err != nil {
		return fmt.Errorf("unable to pretty print %s: %w", path, err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputName, data, fi.Mode().Perm()); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}
	log.Info("Document pretty printed", zap.String("from", path), zap.String("to", outputName))

	if env.Rpt != nil {
		env.Rpt.Store(reportName(rel), outputName)
	}
	return nil
}

// prepareOutput returns name of the file result goes to and makes sure it
// could be written.
func prepareOutput(path, rel, dst string, overwrite bool, log *zap.Logger) (string, error) {
	if len(dst) == 0 {
		return path, nil
	}

	outputName := filepath.Join(dst, rel)
	if outputName == path {
		return path, nil
	}
	if _, err := os.Stat(outputName); err == nil {
		if !overwrite {
			return "", fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return "", err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return "", fmt.Errorf("unable to create output directory: %w", err)
	}
	return outputName, nil
}

// reportName is transliterated name result is saved under in debug report,
// "rel" is unique within a single run.
func reportName(rel string) string {
	ext := filepath.Ext(rel)
	return "result-" + slug.Make(filepath.ToSlash(strings.TrimSuffix(rel, ext))) + ext
}
