package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid download token")
	ErrExpiredToken = errors.New("download token expired")
)

// DownloadClaims is what a verified token grants access to.
type DownloadClaims struct {
	BackupID  string
	Path      string
	ExpiresAt time.Time
}

// DownloadTokenSigner issues HMAC-signed, time-limited links to stored files.
type DownloadTokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewDownloadTokenSigner builds a signer; ttl defaults to one hour.
func NewDownloadTokenSigner(secret string, ttl time.Duration) *DownloadTokenSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &DownloadTokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for relPath and the instant it stops being valid.
func (s *DownloadTokenSigner) Sign(backupID, relPath string) (string, time.Time, error) {
	if backupID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("backup id and path are required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	if !safeRelativePath(relPath) {
		return "", time.Time{}, fmt.Errorf("path %q escapes the storage directory", relPath)
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	payload := strings.Join([]string{backupID, relPath, strconv.FormatInt(expiresAt.Unix(), 10)}, "\n")
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return encoded + "." + s.signature(encoded), expiresAt, nil
}

// Verify checks signature and expiry and returns the embedded claims.
func (s *DownloadTokenSigner) Verify(token string) (DownloadClaims, error) {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || signature == "" {
		return DownloadClaims{}, ErrInvalidToken
	}
	if !hmac.Equal([]byte(s.signature(encoded)), []byte(signature)) {
		return DownloadClaims{}, ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return DownloadClaims{}, ErrInvalidToken
	}
	parts := strings.Split(string(raw), "\n")
	if len(parts) != 3 || !safeRelativePath(parts[1]) {
		return DownloadClaims{}, ErrInvalidToken
	}
	unix, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return DownloadClaims{}, ErrInvalidToken
	}
	claims := DownloadClaims{BackupID: parts[0], Path: parts[1], ExpiresAt: time.Unix(unix, 0)}
	if s.now().After(claims.ExpiresAt) {
		return claims, ErrExpiredToken
	}
	return claims, nil
}

func (s *DownloadTokenSigner) signature(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func safeRelativePath(p string) bool {
	if p == "" || filepath.IsAbs(p) || strings.Contains(p, "\n") {
		return false
	}
	clean := filepath.Clean(p)
	return clean != ".." && !strings.HasPrefix(clean, ".."+string(filepath.Separator))
}
