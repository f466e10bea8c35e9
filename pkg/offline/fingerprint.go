package offline

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
)

// Fingerprint returns the hex SHA-1 of everything read from r. Feeding it
// the build output (for example an asset manifest) yields a value that
// changes whenever any asset does.
func Fingerprint(r io.Reader) (string, error) {
	h := sha1.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
