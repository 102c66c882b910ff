package finder

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// DotExt is the extension of graph files picked up in directory mode
const DotExt = ".dot"

// Pair is one graph file present under both compared directories
type Pair struct {
	Name string `json:"name" yaml:"name"` // path relative to the directory roots
	A    string `json:"a" yaml:"a"`
	B    string `json:"b" yaml:"b"`
}

// Pairing is the result of matching two directory trees by relative path
type Pairing struct {
	Pairs []Pair   `json:"pairs" yaml:"pairs"`
	OnlyA []string `json:"onlyA,omitempty" yaml:"onlyA,omitempty"`
	OnlyB []string `json:"onlyB,omitempty" yaml:"onlyB,omitempty"`
}

// Complete reports whether every file found has a counterpart
func (p *Pairing) Complete() bool {
	return len(p.OnlyA) == 0 && len(p.OnlyB) == 0
}

// FindDotFiles walks root and returns the relative, slash-separated paths
// of all .dot files in sorted order. Hidden directories are skipped.
func FindDotFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), DotExt) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	slices.Sort(files)
	return files, nil
}

// PairDotFiles matches the .dot files under dirA and dirB by relative path
func PairDotFiles(dirA, dirB string) (*Pairing, error) {
	filesA, err := FindDotFiles(dirA)
	if err != nil {
		return nil, err
	}
	filesB, err := FindDotFiles(dirB)
	if err != nil {
		return nil, err
	}

	pairing := &Pairing{}
	i, j := 0, 0
	for i < len(filesA) || j < len(filesB) {
		switch {
		case j == len(filesB) || (i < len(filesA) && filesA[i] < filesB[j]):
			pairing.OnlyA = append(pairing.OnlyA, filesA[i])
			i++
		case i == len(filesA) || filesB[j] < filesA[i]:
			pairing.OnlyB = append(pairing.OnlyB, filesB[j])
			j++
		default:
			name := filesA[i]
			pairing.Pairs = append(pairing.Pairs, Pair{
				Name: name,
				A:    filepath.Join(dirA, filepath.FromSlash(name)),
				B:    filepath.Join(dirB, filepath.FromSlash(name)),
			})
			i++
			j++
		}
	}

	return pairing, nil
}
