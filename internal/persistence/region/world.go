package region

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dimension names a dimension and its folder relative to the world root.
type Dimension struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"`
}

func DefaultDimensions() []Dimension {
	return []Dimension{
		{Name: "overworld", Dir: "."},
		{Name: "nether", Dir: "DIM-1"},
		{Name: "end", Dir: "DIM1"},
	}
}

// Source is one region file to scan.
type Source struct {
	Path      string
	Dimension string
}

// CheckWorld verifies the world folder exists and is a directory.
func CheckWorld(dir string) error {
	st, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("%s: not a directory", dir)
	}
	return nil
}

// RegionFiles lists region sources: per dimension, region/ then entities/,
// each sorted by name. Missing folders are skipped.
func RegionFiles(worldDir string, dims []Dimension) ([]Source, error) {
	var out []Source
	for _, d := range dims {
		for _, sub := range []string{"region", "entities"} {
			dir := filepath.Join(worldDir, d.Dir, sub)
			names, err := listRegionNames(dir)
			if err != nil {
				return nil, err
			}
			for _, name := range names {
				out = append(out, Source{
					Path:      filepath.Join(dir, name),
					Dimension: d.Name,
				})
			}
		}
	}
	return out, nil
}

func listRegionNames(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		if _, _, ok := ParseFileName(e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// PlayerFile is a <uuid>.dat file found under the world folder.
type PlayerFile struct {
	Path string
	ID   string
}

// PlayerFiles walks the whole world folder in lexical order and returns
// every file named like a player save.
func PlayerFiles(worldDir string) ([]PlayerFile, error) {
	var out []PlayerFile
	err := filepath.WalkDir(worldDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".dat") {
			return nil
		}
		if id, ok := PlayerID(d.Name()); ok {
			out = append(out, PlayerFile{Path: path, ID: id})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
