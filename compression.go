package xarray

import (
	"fmt"
	"io"

	"github.com/qri-io/dataset/compression"
)

// CompressionMeta is the "compressor" object of zarr array metadata
type CompressionMeta struct {
	ID      string `json:"id"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
	Level   int    `json:"level,omitempty"`
}

// zarr codec ids mapped to the compression formats that can decode them
var codecFormats = map[string]string{
	"gzip": "gzip",
	"zstd": "zst",
}

// Decompressor wraps a chunk reader with the codec named by m. A nil
// CompressionMeta means chunks are stored uncompressed. Closing the
// returned reader closes r
func (m *CompressionMeta) Decompressor(r io.ReadCloser) (io.ReadCloser, error) {
	if m == nil || m.ID == "" {
		return r, nil
	}
	format, ok := codecFormats[m.ID]
	if !ok {
		r.Close()
		return nil, fmt.Errorf("%w: compressor %q", ErrUnsupported, m.ID)
	}
	dr, err := compression.Decompressor(format, r)
	if err != nil {
		r.Close()
		return nil, err
	}
	return &chainedCloser{ReadCloser: dr, src: r}, nil
}

type chainedCloser struct {
	io.ReadCloser
	src io.Closer
}

func (c *chainedCloser) Close() error {
	err := c.ReadCloser.Close()
	if serr := c.src.Close(); err == nil {
		err = serr
	}
	return err
}
