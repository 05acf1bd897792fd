package file

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"issuebot/internal/types"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
)

const compressedSuffix = ".zst"

var enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
var dec, _ = zstd.NewReader(nil)

// UserStore keeps every user in a single JSON document keyed by user id.
// Each write re-reads the whole document, swaps one entry and rewrites the
// file. The mutex only serializes writers inside this process; two processes
// sharing the file can still lose each other's updates.
type UserStore struct {
	path string
	mu   sync.Mutex
}

func NewUserStore(path string) *UserStore {
	return &UserStore{path: path}
}

// document maps user id to the raw stored value. Values are either
// {"repos": [...], "token": ...} or, in older files, a bare repo array.
type document map[string]json.RawMessage

func (s *UserStore) GetUser(ctx context.Context, id string) (types.UserRecord, error) {
	doc, err := s.readDocument()
	if err != nil {
		return types.UserRecord{}, err
	}
	raw, ok := doc[id]
	if !ok {
		return types.UserRecord{}, types.ErrNotFound
	}
	return decodeRecord(id, raw)
}

func (s *UserStore) ListUsers(ctx context.Context) ([]string, error) {
	doc, err := s.readDocument()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(doc))
	for id := range doc {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *UserStore) PutUser(ctx context.Context, rec types.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		// A corrupt document is replaced rather than blocking every write.
		log.WithError(err).WithField("path", s.path).Warn("config document unreadable, starting from empty")
		doc = document{}
	}
	if rec.Repos == nil {
		rec.Repos = []string{}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	doc[rec.ID] = b
	return s.writeDocument(doc)
}

func (s *UserStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// readDocument returns an empty document when the file does not exist yet.
func (s *UserStore) readDocument() (document, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return document{}, nil
		}
		return nil, types.Err(types.ErrDataStoreAccess, err, "read %s", s.path)
	}
	if s.compressed() {
		b, err = dec.DecodeAll(b, nil)
		if err != nil {
			return nil, types.Err(types.ErrDataStoreAccess, err, "decompress %s", s.path)
		}
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return document{}, nil
	}
	doc := document{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, types.Err(types.ErrDataStoreAccess, err, "parse %s", s.path)
	}
	return doc, nil
}

func (s *UserStore) writeDocument(doc document) error {
	b, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}
	if s.compressed() {
		b = enc.EncodeAll(b, nil)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "mkdir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "create temp file in %s", dir)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return types.Err(types.ErrDataStoreAccess, err, "write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "rename to %s", s.path)
	}
	return nil
}

func (s *UserStore) compressed() bool {
	return strings.HasSuffix(s.path, compressedSuffix)
}

func decodeRecord(id string, raw json.RawMessage) (types.UserRecord, error) {
	rec := types.NewUserRecord(id)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &rec.Repos); err != nil {
			return types.UserRecord{}, types.Err(types.ErrDataStoreAccess, err, "user %s", id)
		}
	} else if err := json.Unmarshal(trimmed, &rec); err != nil {
		return types.UserRecord{}, types.Err(types.ErrDataStoreAccess, err, "user %s", id)
	}
	rec.ID = id
	if rec.Repos == nil {
		rec.Repos = []string{}
	}
	return rec, nil
}
