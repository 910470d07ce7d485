package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brianolson/xorset"
	"github.com/google/uuid"
)

// DocumentExt is the file extension of documents in a registry directory.
const DocumentExt = ".json"

var (
	ErrNotFound    = errors.New("registry: filter not found")
	ErrNoEntries   = errors.New("registry: no entries to build a filter from")
	ErrBadDocument = errors.New("registry: malformed filter document")
)

// Document is the on-disk form of a filter: its identity, where its keys
// came from and the xorset binary encoding (base64 in JSON).
type Document struct {
	UUID       uuid.UUID `json:"uuid"`
	SourceFile string    `json:"source_file,omitempty"`
	NumEntries int       `json:"num_entries"`
	FilterData []byte    `json:"filter_data"`
}

// NewDocument encodes filter into a document.
func NewDocument(id uuid.UUID, sourceFile string, numEntries int, filter *xorset.Xor8) (*Document, error) {
	data, err := filter.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &Document{
		UUID:       id,
		SourceFile: sourceFile,
		NumEntries: numEntries,
		FilterData: data,
	}, nil
}

// Filter decodes the document's filter.
func (d *Document) Filter() (*xorset.Xor8, error) {
	return xorset.UnmarshalBinary(d.FilterData)
}

// Entry decodes the document into a registry entry.
func (d *Document) Entry() (*Entry, error) {
	filter, err := d.Filter()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBadDocument, d.UUID, err)
	}
	return &Entry{
		ID:         d.UUID,
		SourceFile: d.SourceFile,
		NumEntries: d.NumEntries,
		Filter:     filter,
	}, nil
}

// FileName is the name the document is stored under.
func (d *Document) FileName() string {
	return d.UUID.String() + DocumentExt
}

// WriteDocument stores doc in dir as <uuid>.json. The file is written to a
// temporary name first and renamed, so a concurrent Reload never sees a
// partial document.
func WriteDocument(dir string, doc *Document) (string, error) {
	if doc.UUID == uuid.Nil {
		return "", fmt.Errorf("%w: nil uuid", ErrBadDocument)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, ".xorset-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	path := filepath.Join(dir, doc.FileName())
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

// ReadDocument loads and validates a document. The filter itself is not
// decoded.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBadDocument, path, err)
	}
	if doc.UUID == uuid.Nil {
		return nil, fmt.Errorf("%w: %s: missing uuid", ErrBadDocument, path)
	}
	if len(doc.FilterData) == 0 {
		return nil, fmt.Errorf("%w: %s: missing filter_data", ErrBadDocument, path)
	}
	return &doc, nil
}
