package runtime

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
)

// LoadTriples reads "subject:predicate:object" lines from path into store and
// returns how many triples were accepted. A missing file yields 0. Lines with
// fewer than three fields are skipped. A read error stops ingestion and the
// partial count is returned; nothing is ever reported to the caller as an error.
func LoadTriples(ctx context.Context, path string, store ports.TripleStore, logger *slog.Logger) int {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("no triples file", "path", path)
		} else {
			logger.Error("failed to open triples file", "path", path, "error", err)
		}
		return 0
	}
	defer f.Close()

	count, err := ReadTriples(ctx, f, store, logger)
	if err != nil {
		logger.Error("triple ingestion aborted", "path", path, "count", count, "error", err)
		return count
	}
	logger.Debug("triples loaded", "path", path, "count", count)
	return count
}

// ReadTriples ingests triple lines from r until EOF. Lines have no length
// limit. It returns the number of triples accepted and the read error that
// stopped it, if any; a partial line cut off by that error is discarded.
func ReadTriples(ctx context.Context, r io.Reader, store ports.TripleStore, logger *slog.Logger) (int, error) {
	count := 0
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return count, err
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		if t, ok := domain.ParseTriple(line); ok {
			if serr := store.AddTriple(ctx, t); serr != nil {
				logger.Warn("failed to store triple", "triple", t.Key(), "error", serr)
			} else {
				count++
			}
		}
		if err != nil {
			return count, nil
		}
	}
}

// LoadPredicateDefaults asks store to load its defaults from path.
// Failures are logged and otherwise ignored.
func LoadPredicateDefaults(path string, store ports.PredicateStore, logger *slog.Logger) {
	err := store.LoadDefaults(path)
	switch {
	case err == nil:
		logger.Debug("predicate defaults loaded", "path", path)
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("no predicate defaults file", "path", path)
	default:
		logger.Warn("failed to load predicate defaults", "path", path, "error", err)
	}
}
