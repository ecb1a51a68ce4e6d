package publisher

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	ErrURLExpired       = errors.New("artifact url expired")
	ErrInvalidSignature = errors.New("artifact url signature invalid")
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrInvalidKey       = errors.New("invalid artifact key")
)

// LocalStore writes artifacts to disk and signs URLs served by this
// process under /artifacts/.
type LocalStore struct {
	dir     string
	baseURL string
	key     []byte
	now     func() time.Time
}

func NewLocalStore(dir, publicBaseURL, signingKey string) *LocalStore {
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		key:     []byte(signingKey),
		now:     time.Now,
	}
}

// SetClock replaces the clock used for signing and verification.
func (s *LocalStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *LocalStore) Put(_ context.Context, key string, body []byte, _ string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

func (s *LocalStore) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	if _, err := s.path(key); err != nil {
		return "", err
	}
	expires := s.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", s.sign(key, expires))
	return s.baseURL + "/artifacts/" + key + "?" + q.Encode(), nil
}

// Open verifies a signed URL's parameters and returns the stored bytes.
func (s *LocalStore) Open(key, expires, signature string) ([]byte, error) {
	key = strings.TrimPrefix(key, "/")
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return nil, ErrInvalidSignature
	}
	if !hmac.Equal([]byte(signature), []byte(s.sign(key, exp))) {
		return nil, ErrInvalidSignature
	}
	if !s.now().Before(time.Unix(exp, 0)) {
		return nil, ErrURLExpired
	}

	body, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return body, nil
}

func (s *LocalStore) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(key + "|" + strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *LocalStore) path(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)), nil
}
