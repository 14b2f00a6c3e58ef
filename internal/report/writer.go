package report

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const (
	CompressionNone = ""
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
)

// Writer serializes Reports as tab-indented JSON, optionally compressed.
type Writer struct {
	compression string
}

func NewWriter(compression string) *Writer {
	return &Writer{compression: compression}
}

// Extension is appended to output paths for the configured compression.
func (w *Writer) Extension() string {
	switch w.compression {
	case CompressionGzip:
		return ".gz"
	case CompressionZstd:
		return ".zst"
	default:
		return ""
	}
}

// Encode returns the serialized (and compressed) reports.
func (w *Writer) Encode(reports Reports) ([]byte, error) {
	data, err := json.MarshalIndent(reports, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("encoding reports: %w", err)
	}

	var buf bytes.Buffer
	switch w.compression {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		err = compressGzip(&buf, data)
	case CompressionZstd:
		err = compressZstd(&buf, data)
	default:
		return nil, fmt.Errorf("unsupported compression type: %s", w.compression)
	}
	if err != nil {
		return nil, fmt.Errorf("compressing reports: %w", err)
	}

	return buf.Bytes(), nil
}

// Write stores reports at path, creating parent directories. The file is
// written to a temporary name first so a failed write never leaves a
// partial report behind. It returns the final path.
func (w *Writer) Write(path string, reports Reports) (string, error) {
	data, err := w.Encode(reports)
	if err != nil {
		return "", err
	}

	if ext := w.Extension(); ext != "" && !strings.HasSuffix(path, ext) {
		path += ext
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".stepbench-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing report: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("moving report into place: %w", err)
	}

	return path, nil
}

// ReadFile loads reports written by Write, picking the decompressor from
// the file extension.
func ReadFile(path string) (Reports, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch filepath.Ext(path) {
	case ".gz":
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		r = gr
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}

	var reports Reports
	if err := json.NewDecoder(r).Decode(&reports); err != nil {
		return nil, fmt.Errorf("decoding reports: %w", err)
	}
	return reports, nil
}

func compressGzip(w io.Writer, data []byte) error {
	gw := gzip.NewWriter(w)
	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return err
	}
	return gw.Close()
}

func compressZstd(w io.Writer, data []byte) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}
