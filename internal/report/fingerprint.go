package report

import (
	"bytes"
	"fmt"

	"github.com/minio/highwayhash"
)

var fingerprintKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Fingerprint returns the HighwayHash-64 of src as 16 hex digits.
func Fingerprint(src []byte) (string, error) {
	hash, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return "", err
	}
	if _, err := hash.Write(src); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", hash.Sum64()), nil
}

// NewFileInfo describes src read from path. Tokens is left for the caller.
func NewFileInfo(path string, src []byte) (FileInfo, error) {
	fp, err := Fingerprint(src)
	if err != nil {
		return FileInfo{Path: path}, fmt.Errorf("failed to fingerprint %s: %w", path, err)
	}
	lines := bytes.Count(src, []byte("\n"))
	if len(src) > 0 && src[len(src)-1] != '\n' {
		lines++
	}
	return FileInfo{Path: path, Fingerprint: fp, Bytes: len(src), Lines: lines}, nil
}
