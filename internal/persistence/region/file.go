package region

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	mcregion "github.com/Tnze/go-mc/save/region"
)

// Size is the number of chunks along each side of a region file.
const Size = 32

var fileNameRE = regexp.MustCompile(`^r\.(-?\d+)\.(-?\d+)\.mca$`)

// ParseFileName returns the region coordinates encoded in r.<x>.<z>.mca.
func ParseFileName(name string) (rx, rz int, ok bool) {
	m := fileNameRE.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, 0, false
	}
	rx, _ = strconv.Atoi(m[1])
	rz, _ = strconv.Atoi(m[2])
	return rx, rz, true
}

// ChunkFunc receives every present chunk of a region. err is set when the
// chunk could not be read or decoded; returning an error stops the walk.
type ChunkFunc func(c Chunk, err error) error

type File struct {
	path string
	r    *mcregion.Region
}

func Open(path string) (*File, error) {
	r, err := mcregion.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open region %s: %w", filepath.Base(path), err)
	}
	return &File{path: path, r: r}, nil
}

func (f *File) Close() error { return f.r.Close() }

// Chunks visits present chunks in header order (z-major). The context is
// checked between chunks.
func (f *File) Chunks(ctx context.Context, fn ChunkFunc) error {
	rx, rz, _ := ParseFileName(f.path)
	for z := 0; z < Size; z++ {
		for x := 0; x < Size; x++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !f.r.ExistSector(x, z) {
				continue
			}
			c, err := f.readChunk(x, z)
			if err != nil {
				c = Chunk{X: rx*Size + x, Z: rz*Size + z}
				err = fmt.Errorf("%s chunk (%d,%d): %w", filepath.Base(f.path), x, z, err)
			}
			if err := fn(c, err); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *File) readChunk(x, z int) (Chunk, error) {
	data, err := f.r.ReadSector(x, z)
	if err != nil {
		return Chunk{}, err
	}
	return DecodeChunk(data)
}
