package storage

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"gopkg.in/yaml.v3"
)

// File names inside the state directory.
const (
	SealedFileName = "session.db"
	KeyFileName    = "session.key"
)

// ErrSealBroken indicates the sealed file could not be authenticated,
// either because it was tampered with or because the key changed.
var ErrSealBroken = errors.New("sealed file cannot be decrypted")

// sealAD binds ciphertexts to this file format.
var sealAD = []byte("minipay-session-v1")

// FileKV implements KV as one sealed YAML document.
//
// Every operation re-reads the file so that concurrent CLI processes sharing
// a state directory observe each other's writes. Writes go to a temp file
// that is renamed over the old one.
type FileKV struct {
	dir    string
	path   string
	aead   cipher.AEAD
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// OpenFileKV opens the sealed store in dir, creating the directory and key
// on first use.
func OpenFileKV(dir string, logger *slog.Logger) (*FileKV, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("file: create dir: %w", err)
	}

	key, err := loadOrCreateKey(filepath.Join(dir, KeyFileName))
	if err != nil {
		return nil, err
	}
	return NewFileKV(dir, key, logger)
}

// NewFileKV opens the sealed store in dir with an explicit 32-byte key.
func NewFileKV(dir string, key []byte, logger *slog.Logger) (*FileKV, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, errors.New("file: invalid key size for ChaCha20-Poly1305: must be 32 bytes")
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("file: init cipher: %w", err)
	}

	return &FileKV{
		dir:    dir,
		path:   filepath.Join(dir, SealedFileName),
		aead:   aead,
		logger: logger,
	}, nil
}

// Path returns the sealed file path.
func (f *FileKV) Path() string {
	return f.path
}

// Get retrieves a value by key.
func (f *FileKV) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}
	data, err := f.load()
	if err != nil {
		return nil, err
	}
	v, ok := data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return []byte(v), nil
}

// Set stores a key-value pair.
func (f *FileKV) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	data, err := f.load()
	if err != nil {
		if !errors.Is(err, ErrSealBroken) {
			return err
		}
		// An unreadable file is replaced rather than blocking new credentials.
		f.logger.Warn("replacing unreadable session file", "path", f.path)
		data = make(map[string]string)
	}
	data[key] = string(value)
	return f.store(data)
}

// Delete removes keys in one write.
func (f *FileKV) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	data, err := f.load()
	if err != nil {
		if !errors.Is(err, ErrSealBroken) {
			return err
		}
		// Clearing must always succeed; drop the unreadable file entirely.
		if rerr := os.Remove(f.path); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			return fmt.Errorf("file: remove: %w", rerr)
		}
		return nil
	}

	changed := false
	for _, k := range keys {
		if _, ok := data[k]; ok {
			delete(data, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if len(data) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("file: remove: %w", err)
		}
		return nil
	}
	return f.store(data)
}

// Close marks the store closed.
func (f *FileKV) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *FileKV) load() (map[string]string, error) {
	sealed, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("file: read: %w", err)
	}

	plain, err := f.open(sealed)
	if err != nil {
		return nil, ErrSealBroken
	}

	data := make(map[string]string)
	if err := yaml.Unmarshal(plain, &data); err != nil {
		return nil, fmt.Errorf("file: decode: %w", err)
	}
	return data, nil
}

func (f *FileKV) store(data map[string]string) error {
	plain, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("file: encode: %w", err)
	}
	sealed, err := f.seal(plain)
	if err != nil {
		return fmt.Errorf("file: seal: %w", err)
	}
	return writeFileAtomic(f.path, sealed, 0o600)
}

// seal encrypts plaintext with a random nonce prepended to the ciphertext.
func (f *FileKV) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, f.aead.NonceSize(), f.aead.NonceSize()+len(plaintext)+f.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return f.aead.Seal(nonce, nonce, plaintext, sealAD), nil
}

func (f *FileKV) open(ciphertext []byte) ([]byte, error) {
	ns := f.aead.NonceSize()
	if len(ciphertext) < ns {
		return nil, errors.New("ciphertext too short")
	}
	return f.aead.Open(nil, ciphertext[:ns], ciphertext[ns:], sealAD)
}

func loadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("file: key %s has invalid size %d", path, len(key))
		}
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("file: read key: %w", err)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("file: generate key: %w", err)
	}
	if err := writeFileAtomic(path, key, 0o600); err != nil {
		return nil, err
	}
	return key, nil
}

// writeFileAtomic writes data to a temp file in the same directory, syncs it
// and renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("file: create temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("file: write: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("file: chmod: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("file: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("file: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("file: rename: %w", err)
	}
	return nil
}
