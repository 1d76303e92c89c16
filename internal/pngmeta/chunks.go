package pngmeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zlib"
)

const pngHeader = "\x89PNG\r\n\x1a\n"

var (
	errSignature = errors.New("invalid png signature")
	errTruncated = errors.New("truncated chunk")
)

type chunk struct {
	typ  string
	data []byte
}

// readChunks splits a PNG stream into chunks, verifying CRCs.
// Reading stops after IEND.
func readChunks(data []byte) ([]chunk, error) {
	if len(data) < len(pngHeader) || string(data[:len(pngHeader)]) != pngHeader {
		return nil, errSignature
	}
	var chunks []chunk
	pos := len(pngHeader)
	for pos < len(data) {
		if pos+8 > len(data) {
			return nil, errTruncated
		}
		n := binary.BigEndian.Uint32(data[pos:])
		typ := string(data[pos+4 : pos+8])
		if uint64(pos)+12+uint64(n) > uint64(len(data)) {
			return nil, fmt.Errorf("%s: %w", typ, errTruncated)
		}
		body := data[pos+8 : pos+8+int(n)]
		crc := binary.BigEndian.Uint32(data[pos+8+int(n):])
		if crc32.ChecksumIEEE(data[pos+4:pos+8+int(n)]) != crc {
			return nil, fmt.Errorf("%s: crc mismatch", typ)
		}
		chunks = append(chunks, chunk{typ: typ, data: body})
		pos += 12 + int(n)
		if typ == "IEND" {
			break
		}
	}
	return chunks, nil
}

func writeChunk(w io.Writer, typ string, data []byte) error {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], typ)

	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write(data)

	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())

	for _, b := range [][]byte{hdr[:], data, sum[:]} {
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	return nil
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
