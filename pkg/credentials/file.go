package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/safeserve/safeserve-go/pkg/encryption"
	"github.com/safeserve/safeserve-go/pkg/utils"
)

// FileStore persists credential pairs in a JSON document on disk.
// The document is re-read on every access so that concurrent CLI invocations
// observe each other's writes; the last writer wins.
type FileStore struct {
	filePath   string
	profile    string
	encryption encryption.Service
	mu         sync.Mutex
}

type fileDocument struct {
	Profiles  map[string]*storedCredentials `json:"profiles"`
	UpdatedAt time.Time                     `json:"updated_at"`
}

// NewFileStore creates a file store for the given profile
func NewFileStore(filePath, profile string, enc encryption.Service) (*FileStore, error) {
	if filePath == "" {
		return nil, fmt.Errorf("credentials file path is required")
	}
	if profile == "" {
		profile = DefaultProfile
	}
	if enc == nil {
		enc = encryption.NewNoopService()
	}

	fs := &FileStore{
		filePath:   filePath,
		profile:    profile,
		encryption: enc,
	}

	// Fail early on an unreadable document rather than on first use
	if _, err := fs.readDocument(); err != nil {
		return nil, err
	}

	return fs, nil
}

// AccessToken returns the stored access credential
func (fs *FileStore) AccessToken(ctx context.Context) (string, error) {
	pair, err := fs.Tokens(ctx)
	if err != nil {
		return "", err
	}
	return pick(pair.Access)
}

// RefreshToken returns the stored refresh credential
func (fs *FileStore) RefreshToken(ctx context.Context) (string, error) {
	pair, err := fs.Tokens(ctx)
	if err != nil {
		return "", err
	}
	return pick(pair.Refresh)
}

// Tokens returns the pair stored for the profile
func (fs *FileStore) Tokens(ctx context.Context) (Pair, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.readDocument()
	if err != nil {
		return Pair{}, err
	}
	return unseal(ctx, fs.encryption, doc.Profiles[fs.profile])
}

// SetTokens seals the pair and writes it in one atomic file replacement
func (fs *FileStore) SetTokens(ctx context.Context, pair Pair) error {
	stored, err := seal(ctx, fs.encryption, pair)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.readDocument()
	if err != nil {
		return err
	}
	doc.Profiles[fs.profile] = stored
	return fs.writeDocument(doc)
}

// Clear removes the profile's credentials from the document
func (fs *FileStore) Clear(ctx context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.readDocument()
	if err != nil {
		return err
	}
	if _, ok := doc.Profiles[fs.profile]; !ok {
		return nil
	}
	delete(doc.Profiles, fs.profile)
	return fs.writeDocument(doc)
}

// Close is a no-op; every write is flushed immediately
func (fs *FileStore) Close() error {
	return nil
}

// readDocument loads the document, returning an empty one when the file does not exist
func (fs *FileStore) readDocument() (*fileDocument, error) {
	doc := &fileDocument{Profiles: make(map[string]*storedCredentials)}

	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	if len(data) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to decode credentials file %s: %w", fs.filePath, err)
	}
	if doc.Profiles == nil {
		doc.Profiles = make(map[string]*storedCredentials)
	}
	return doc, nil
}

func (fs *FileStore) writeDocument(doc *fileDocument) error {
	doc.UpdatedAt = time.Now().UTC()
	if err := utils.WriteJSONFile(fs.filePath, doc, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
