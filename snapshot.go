package memvec

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/AINative-Studio/memvec/blobstore"
	"github.com/AINative-Studio/memvec/codec"
)

// Compression selects how a snapshot payload is compressed on disk.
type Compression byte

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", byte(c))
	}
}

// Snapshot file layout:
//
//	magic "MVS1" (4 bytes)
//	format version (1 byte)
//	compression (1 byte)
//	codec name length (1 byte) + codec name
//	payload (codec-encoded snapshotImage, compressed per header)
var snapshotMagic = [4]byte{'M', 'V', 'S', '1'}

const snapshotVersion = 1

// SnapshotOptions configures Snapshot. The zero value uses the default
// codec and no compression.
type SnapshotOptions struct {
	Codec       codec.Codec
	Compression Compression
}

// WithSnapshotCodec sets the payload codec.
func WithSnapshotCodec(c codec.Codec) func(o *SnapshotOptions) {
	return func(o *SnapshotOptions) {
		o.Codec = c
	}
}

// WithSnapshotCompression sets the payload compression.
func WithSnapshotCompression(c Compression) func(o *SnapshotOptions) {
	return func(o *SnapshotOptions) {
		o.Compression = c
	}
}

// snapshotImage is the serialized form of the whole store: every project,
// every namespace, records in insertion order so a restore reproduces the
// original tie-break behavior.
type snapshotImage struct {
	Projects []snapshotProject `json:"projects"`
}

type snapshotProject struct {
	ID         string              `json:"id"`
	Namespaces []snapshotNamespace `json:"namespaces"`
}

type snapshotNamespace struct {
	Name    string   `json:"name"`
	Records []Record `json:"records"`
}

// Snapshot serializes the full store state into the blob store under the
// given name. The write is atomic at the blob level: readers either see the
// previous snapshot or the new one.
func (s *Store) Snapshot(ctx context.Context, blobs blobstore.BlobStore, name string, optFns ...func(o *SnapshotOptions)) error {
	opts := SnapshotOptions{Codec: codec.Default}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if len(opts.Codec.Name()) > 255 {
		return fmt.Errorf("codec name %q too long", opts.Codec.Name())
	}

	img := s.capture()

	payload, err := opts.Codec.Marshal(img)
	if err != nil {
		s.logger.LogSnapshot(ctx, "snapshot", name, err)
		return fmt.Errorf("encode snapshot: %w", err)
	}

	payload, err = compress(payload, opts.Compression)
	if err != nil {
		s.logger.LogSnapshot(ctx, "snapshot", name, err)
		return fmt.Errorf("compress snapshot: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(payload) + 8 + len(opts.Codec.Name()))
	buf.Write(snapshotMagic[:])
	buf.WriteByte(snapshotVersion)
	buf.WriteByte(byte(opts.Compression))
	buf.WriteByte(byte(len(opts.Codec.Name())))
	buf.WriteString(opts.Codec.Name())
	buf.Write(payload)

	if err := blobs.Put(ctx, name, buf.Bytes()); err != nil {
		s.logger.LogSnapshot(ctx, "snapshot", name, err)
		return fmt.Errorf("write snapshot %q: %w", name, err)
	}

	s.logger.LogSnapshot(ctx, "snapshot", name, nil)
	return nil
}

// Restore replaces the store's entire contents with the snapshot stored
// under the given name. On any error the store is left unchanged.
func (s *Store) Restore(ctx context.Context, blobs blobstore.BlobStore, name string) error {
	data, err := blobs.Get(ctx, name)
	if err != nil {
		s.logger.LogSnapshot(ctx, "restore", name, err)
		return fmt.Errorf("read snapshot %q: %w", name, err)
	}

	img, err := decodeSnapshot(data)
	if err != nil {
		s.logger.LogSnapshot(ctx, "restore", name, err)
		return fmt.Errorf("decode snapshot %q: %w", name, err)
	}

	projects := make(map[string]*project, len(img.Projects))
	for _, sp := range img.Projects {
		proj := &project{namespaces: make(map[string]*partition, len(sp.Namespaces))}
		for _, sn := range sp.Namespaces {
			part := newPartition(s.opts.Indexing)
			for i := range sn.Records {
				rec := sn.Records[i]
				part.records[rec.ID] = &rec
				part.order = append(part.order, rec.ID)
				row := part.nextRow
				part.nextRow++
				part.rows[rec.ID] = row
				part.index.Add(row, rec.Metadata)
			}
			if len(part.records) > 0 {
				proj.namespaces[sn.Name] = part
			}
		}
		if len(proj.namespaces) > 0 {
			projects[sp.ID] = proj
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.projects = projects

	s.logger.LogSnapshot(ctx, "restore", name, nil)
	return nil
}

func (s *Store) capture() snapshotImage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var img snapshotImage
	for pid, proj := range s.projects {
		sp := snapshotProject{ID: pid}
		for name, part := range proj.namespaces {
			sn := snapshotNamespace{
				Name:    name,
				Records: make([]Record, 0, len(part.order)),
			}
			for _, id := range part.order {
				sn.Records = append(sn.Records, *cloneRecord(part.records[id]))
			}
			sp.Namespaces = append(sp.Namespaces, sn)
		}
		img.Projects = append(img.Projects, sp)
	}
	return img
}

func decodeSnapshot(data []byte) (*snapshotImage, error) {
	if len(data) < len(snapshotMagic)+3 {
		return nil, fmt.Errorf("truncated header (%d bytes)", len(data))
	}
	if !bytes.Equal(data[:4], snapshotMagic[:]) {
		return nil, fmt.Errorf("bad magic %q", data[:4])
	}
	if v := data[4]; v != snapshotVersion {
		return nil, fmt.Errorf("unsupported format version %d", v)
	}
	compression := Compression(data[5])
	nameLen := int(data[6])
	if len(data) < 7+nameLen {
		return nil, fmt.Errorf("truncated codec name")
	}
	codecName := string(data[7 : 7+nameLen])
	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", codecName)
	}

	payload, err := decompress(data[7+nameLen:], compression)
	if err != nil {
		return nil, err
	}

	var img snapshotImage
	if err := c.Unmarshal(payload, &img); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &img, nil
}

func compress(payload []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return payload, nil

	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(payload, make([]byte, 0, len(payload)/2)), nil

	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(payload); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unknown compression %d", byte(c))
	}
}

func decompress(payload []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return payload, nil

	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		out, err := dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return out, nil

	case CompressionLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(payload)))
		if err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown compression %d", byte(c))
	}
}
