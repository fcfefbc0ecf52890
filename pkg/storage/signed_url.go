package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FileTokenSigner creates and validates signed tokens for file content links.
// A token binds a file id to the blob hash it pointed at when issued, so a
// replaced or deleted file invalidates outstanding links.
type FileTokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewFileTokenSigner constructs a signer with the provided secret and TTL.
func NewFileTokenSigner(secret string, ttl time.Duration) *FileTokenSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &FileTokenSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate returns a signed token for fileID and its content hash.
func (s *FileTokenSigner) Generate(fileID int64, contentHash string) (string, time.Time, error) {
	if fileID <= 0 || contentHash == "" {
		return "", time.Time{}, fmt.Errorf("fileID and contentHash required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl)
	id := strconv.FormatInt(fileID, 10)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	token := strings.Join([]string{id, ts, s.sign(id, ts, contentHash)}, ".")
	return token, expiresAt, nil
}

// Parse validates token against the file it is presented for.
func (s *FileTokenSigner) Parse(token string, contentHash string) (fileID int64, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return 0, time.Time{}, fmt.Errorf("invalid token format")
	}
	fileID, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("invalid file id")
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("invalid timestamp")
	}
	expected := s.sign(parts[0], parts[1], contentHash)
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return 0, time.Time{}, fmt.Errorf("invalid token signature")
	}
	expiresAt = time.Unix(expUnix, 0)
	if s.now().After(expiresAt) {
		return 0, time.Time{}, fmt.Errorf("token expired")
	}
	return fileID, expiresAt, nil
}

// FileID extracts the file id from a token without verifying it.
func FileID(token string) (int64, error) {
	head, _, ok := strings.Cut(token, ".")
	if !ok {
		return 0, fmt.Errorf("invalid token format")
	}
	return strconv.ParseInt(head, 10, 64)
}

func (s *FileTokenSigner) sign(id, ts, contentHash string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(id + "|" + ts + "|" + contentHash))
	return hex.EncodeToString(mac.Sum(nil))
}
