// Package loader reads import sources and builds schema graphs from parsed
// documents.
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Source is the raw content of one input file.
type Source struct {
	Name string
	Data []byte
}

// ReadFiles reads every path in order. "-" reads from stdin.
func ReadFiles(paths []string, stdin io.Reader) ([]Source, error) {
	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		if path == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("reading stdin: %w", err)
			}
			sources = append(sources, Source{Name: "stdin", Data: data})
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading spec file: %w", err)
		}
		sources = append(sources, Source{Name: filepath.Base(path), Data: data})
	}
	return sources, nil
}

// Contents returns the raw data of each source, in order.
func Contents(sources []Source) [][]byte {
	out := make([][]byte, len(sources))
	for i, s := range sources {
		out[i] = s.Data
	}
	return out
}
