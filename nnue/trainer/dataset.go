package trainer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/hailam/nnue/internal/board"
	"github.com/hailam/nnue/nnue/features"
)

// LoadSamples reads a file of packed training records, optionally
// zstd-compressed (by the .zst suffix), extracts feature indices with
// the given feature set, and returns the samples plus the number of
// records discarded as corrupt. A short trailing record is an error; a
// record that fails validation is skipped and counted.
func LoadSamples(filename string, fs *features.Composite) ([]Sample, int, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReaderSize(f, 1<<20)
	if strings.HasSuffix(filename, ".zst") {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", filename, err)
		}
		defer zr.Close()
		r = zr
	}

	var samples []Sample
	discarded := 0
	buf := make([]byte, board.RecordSize)
	for {
		_, err := io.ReadFull(r, buf)
		if errors.Is(err, io.EOF) {
			return samples, discarded, nil
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%s: record %d: %w", filename, len(samples)+discarded, err)
		}
		var rec board.Record
		if err := rec.UnmarshalBinary(buf); err != nil {
			discarded++
			continue
		}
		pos, err := rec.Unpack()
		if err != nil {
			discarded++
			continue
		}
		samples = append(samples, newSample(pos, fs, rec.Score, rec.Result))
	}
}

func newSample(pos *board.Position, fs *features.Composite, score int16, result int8) Sample {
	var s Sample
	s.Score = score
	s.Result = result
	perspectives := [2]board.Color{pos.SideToMove, pos.SideToMove.Other()}
	for p, perspective := range perspectives {
		var active features.IndexList
		fs.AppendAllActiveIndices(pos, perspective, &active)
		s.Active[p] = append([]uint32(nil), active.Values()...)
	}
	return s
}
