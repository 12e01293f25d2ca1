package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// ErrCorruptStore reports an existing store file that cannot be parsed.
var ErrCorruptStore = errors.New("corrupt store")

// FileStore loads and saves a Store as a JSON file.
// It assumes a single writer per path.
type FileStore struct {
	fs     afero.Fs
	path   string
	layout Layout
	entity string   // entity held by a single-layout file
	order  []string // entity order as loaded, for list layout
}

// NewFileStore creates a file store at path. layout applies to files that do
// not exist yet; existing files keep the layout they were written with.
// entity names the records of a single-layout file.
func NewFileStore(fs afero.Fs, path string, layout Layout, entity string) *FileStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if layout == "" {
		layout = LayoutMap
	}
	return &FileStore{fs: fs, path: path, layout: layout, entity: entity}
}

// Path returns the store file path.
func (f *FileStore) Path() string {
	return f.path
}

// Layout returns the layout that Save will write.
func (f *FileStore) Layout() Layout {
	return f.layout
}

type namedHistory struct {
	Name    string   `json:"name"`
	History []Record `json:"history"`
}

// Load reads the store. A missing file is an empty store; an unreadable or
// unparseable file is an error wrapping ErrCorruptStore.
func (f *FileStore) Load() (Store, error) {
	data, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("read store %s: %w", f.path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrCorruptStore, f.path)
	}

	s, layout, order, err := decodeStore(trimmed, f.entity)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, f.path, err)
	}
	if layout != "" {
		f.layout = layout
	}
	f.order = order
	return s, nil
}

func decodeStore(data []byte, entity string) (Store, Layout, []string, error) {
	if data[0] == '{' {
		var s Store
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, "", nil, err
		}
		if s == nil {
			s = Store{}
		}
		return s, LayoutMap, nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, "", nil, err
	}
	if len(items) == 0 {
		return Store{}, "", nil, nil
	}

	var first map[string]json.RawMessage
	if err := json.Unmarshal(items[0], &first); err != nil {
		return nil, "", nil, err
	}
	if _, ok := first["history"]; ok {
		var named []namedHistory
		if err := json.Unmarshal(data, &named); err != nil {
			return nil, "", nil, err
		}
		s := Store{}
		order := make([]string, 0, len(named))
		for _, n := range named {
			if _, dup := s[n.Name]; dup {
				return nil, "", nil, fmt.Errorf("duplicate entity %q", n.Name)
			}
			s[n.Name] = n.History
			order = append(order, n.Name)
		}
		return s, LayoutList, order, nil
	}

	if entity == "" {
		return nil, "", nil, errors.New("single-entity store requires an entity name")
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, "", nil, err
	}
	return Store{entity: records}, LayoutSingle, nil, nil
}

// Save writes the store atomically: the content goes to a temporary file in
// the same directory which then replaces the target.
func (f *FileStore) Save(s Store) error {
	data, err := f.encode(s)
	if err != nil {
		return err
	}
	if err := writeAtomic(f.fs, f.path, data); err != nil {
		return fmt.Errorf("write store %s: %w", f.path, err)
	}
	return nil
}

func (f *FileStore) encode(s Store) ([]byte, error) {
	var v interface{}
	switch f.layout {
	case LayoutSingle:
		if len(s) > 1 {
			return nil, fmt.Errorf("single-entity store cannot hold %d entities", len(s))
		}
		records := []Record{}
		for _, r := range s {
			records = r
		}
		v = records
	case LayoutList:
		named := make([]namedHistory, 0, len(s))
		for _, name := range f.entityOrder(s) {
			named = append(named, namedHistory{Name: name, History: nonNil(s[name])})
		}
		v = named
	default:
		out := make(map[string][]Record, len(s))
		for name, records := range s {
			out[name] = nonNil(records)
		}
		v = out
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode store: %w", err)
	}
	return append(data, '\n'), nil
}

// entityOrder keeps the loaded order and appends new entities sorted.
func (f *FileStore) entityOrder(s Store) []string {
	seen := map[string]bool{}
	var names []string
	for _, name := range f.order {
		if _, ok := s[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var added []string
	for name := range s {
		if !seen[name] {
			added = append(added, name)
		}
	}
	sort.Strings(added)
	return append(names, added...)
}

func nonNil(records []Record) []Record {
	if records == nil {
		return []Record{}
	}
	return records
}

func writeAtomic(fs afero.Fs, path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = fs.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = fs.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return fs.Rename(tmpName, path)
}
