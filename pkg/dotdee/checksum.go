package dotdee

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// Checksum returns the lowercase hex SHA-1 digest of data.
func Checksum(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// NewChecksum returns the checksum of the target as it is now, or "" when
// the target does not exist.
func (u *Updater) NewChecksum(ctx context.Context) (string, error) {
	data, ok, err := u.readIfFile(ctx, u.opts.Filename)
	if err != nil || !ok {
		return "", err
	}
	return Checksum(data), nil
}

// OldChecksum returns the checksum stored by the last update, or "" when
// none was stored. Surrounding whitespace is ignored so that the file can be
// edited by hand.
func (u *Updater) OldChecksum(ctx context.Context) (string, error) {
	data, ok, err := u.readIfFile(ctx, u.opts.ChecksumFile)
	if err != nil || !ok {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (u *Updater) readIfFile(ctx context.Context, path string) ([]byte, bool, error) {
	exists, err := u.opts.Context.IsFile(ctx, path)
	if err != nil || !exists {
		return nil, false, err
	}
	data, err := u.opts.Context.ReadFile(ctx, path)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
