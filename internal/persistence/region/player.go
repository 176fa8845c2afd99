package region

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"worldinv/internal/nbtree"
)

// PlayerID returns the player UUID encoded in a <uuid>.dat file name.
func PlayerID(name string) (string, bool) {
	base := filepath.Base(name)
	if len(base) != 40 || !strings.HasSuffix(base, ".dat") {
		return "", false
	}
	stem := base[:36]
	if _, err := uuid.Parse(stem); err != nil {
		return "", false
	}
	return stem, true
}

// ReadPlayer decodes a player save. Saves are gzip NBT; an uncompressed
// document is accepted as well.
func ReadPlayer(path string) (nbtree.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nbtree.Node{}, err
	}
	defer f.Close()
	n, err := DecodePlayer(f)
	if err != nil {
		return n, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return n, nil
}

func DecodePlayer(r io.Reader) (nbtree.Node, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil {
		return nbtree.Node{}, fmt.Errorf("read header: %w", err)
	}
	var src io.Reader = br
	if magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nbtree.Node{}, err
		}
		defer zr.Close()
		src = zr
	}
	return decodeNBT(src)
}
