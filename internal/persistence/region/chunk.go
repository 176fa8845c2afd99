package region

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"worldinv/internal/nbtree"
)

// Compression types stored in front of every chunk payload.
const (
	CompressionGzip byte = 1
	CompressionZlib byte = 2
	CompressionNone byte = 3
	CompressionLZ4  byte = 4

	externalFlag byte = 0x80
)

var (
	ErrEmptyChunk         = errors.New("empty chunk payload")
	ErrExternalChunk      = errors.New("chunk stored in external .mcc file")
	ErrUnknownCompression = errors.New("unknown chunk compression")
)

// Chunk is the decoded view the inventory scan works on. Entities are the
// live (free-standing or moving) objects, TileEntities the objects
// anchored to a block.
type Chunk struct {
	X, Z         int
	Entities     []nbtree.Node
	TileEntities []nbtree.Node
}

// DecodeChunk decodes one sector payload: a compression byte followed by
// the compressed NBT document.
func DecodeChunk(data []byte) (Chunk, error) {
	if len(data) == 0 {
		return Chunk{}, ErrEmptyChunk
	}
	if data[0]&externalFlag != 0 {
		return Chunk{}, ErrExternalChunk
	}
	r, err := decompress(data[0], bytes.NewReader(data[1:]))
	if err != nil {
		return Chunk{}, err
	}
	root, err := decodeNBT(r)
	if err != nil {
		return Chunk{}, err
	}
	return chunkFromRoot(root), nil
}

func decompress(kind byte, r io.Reader) (io.Reader, error) {
	switch kind {
	case CompressionGzip:
		return gzip.NewReader(r)
	case CompressionZlib:
		return zlib.NewReader(r)
	case CompressionNone:
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, kind)
	}
}

func decodeNBT(r io.Reader) (nbtree.Node, error) {
	var root map[string]any
	if _, err := nbt.NewDecoder(bufio.NewReader(r)).Decode(&root); err != nil {
		return nbtree.Node{}, fmt.Errorf("nbt decode: %w", err)
	}
	return nbtree.Compound(root), nil
}

// chunkFromRoot accepts the pre-1.18 layout (everything under Level), the
// 1.18 layout (block_entities at the root) and entity region files
// (Entities at the root).
func chunkFromRoot(root nbtree.Node) Chunk {
	lvl := root
	if l := root.Field("Level"); l.IsCompound() {
		lvl = l
	}
	c := Chunk{Entities: lvl.Field("Entities").List()}
	if te, ok := lvl.Lookup("TileEntities", "block_entities"); ok {
		c.TileEntities = te.List()
	}
	if x, ok := lvl.Field("xPos").Int(); ok {
		c.X = int(x)
	}
	if z, ok := lvl.Field("zPos").Int(); ok {
		c.Z = int(z)
	}
	if p := lvl.Field("Position"); p.Len() == 2 {
		c.X = int(p.Index(0).IntOr(0))
		c.Z = int(p.Index(1).IntOr(0))
	}
	return c
}
