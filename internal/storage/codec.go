package storage

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"arxivmon/internal/structures"
)

// zstd frame magic, used to recognize compressed snapshots on read.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// SnapshotCodec encodes snapshot bytes before they hit disk. Compression
// is a config flag; decoding sniffs the frame magic so snapshots written
// under either setting stay readable after the flag changes.
type SnapshotCodec struct {
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

func NewSnapshotCodec(conf *structures.Config) (*SnapshotCodec, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &SnapshotCodec{
		compress: conf.Storage.Compress,
		encoder:  encoder,
		decoder:  decoder,
	}, nil
}

func (c *SnapshotCodec) Encode(val []byte) ([]byte, error) {
	if !c.compress {
		return val, nil
	}
	return c.encoder.EncodeAll(val, make([]byte, 0, len(val)/2)), nil
}

func (c *SnapshotCodec) Decode(val []byte) ([]byte, error) {
	if !bytes.HasPrefix(val, zstdMagic) {
		return val, nil
	}
	return c.decoder.DecodeAll(val, nil)
}
