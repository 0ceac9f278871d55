package model

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/KaramelBytes/milexcast/internal/utils"
)

// ManifestFile is written next to the model blobs once every blob of a run is saved.
const ManifestFile = "manifest.json"

// StorageError reports a failure to persist or restore a model blob.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string { return fmt.Sprintf("model storage %s: %v", e.Path, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// Manifest describes one training run's saved models.
type Manifest struct {
	RunID     string        `json:"run_id"`
	Country   string        `json:"country,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Features  []string      `json:"features"`
	Models    map[ID]string `json:"models"`
}

// blobVersion guards against decoding blobs written by an incompatible layout.
const blobVersion = 2

// blob carries the run that wrote it so a reload can tell blobs of
// different runs apart.
type blob struct {
	Version int
	RunID   string
	Model   *Model
}

// BlobPath returns the file that holds model id inside dir.
func BlobPath(dir string, id ID) string {
	return filepath.Join(dir, "model_"+string(id)+".gob.xz")
}

// Save writes m as an xz-compressed gob blob under dir, tagged with runID,
// creating dir if needed.
func Save(dir string, m *Model, runID string) (string, error) {
	path := BlobPath(dir, m.ID)
	if err := utils.EnsureDir(dir); err != nil {
		return "", &StorageError{Path: dir, Err: err}
	}
	var buf bytes.Buffer
	zw, err := xz.NewWriter(&buf)
	if err != nil {
		return "", &StorageError{Path: path, Err: err}
	}
	if err := gob.NewEncoder(zw).Encode(blob{Version: blobVersion, RunID: runID, Model: m}); err != nil {
		return "", &StorageError{Path: path, Err: fmt.Errorf("encode: %w", err)}
	}
	if err := zw.Close(); err != nil {
		return "", &StorageError{Path: path, Err: fmt.Errorf("compress: %w", err)}
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return "", &StorageError{Path: path, Err: err}
	}
	return path, nil
}

// Load restores model id from dir.
func Load(dir string, id ID) (*Model, error) {
	b, err := load(dir, id)
	if err != nil {
		return nil, err
	}
	return b.Model, nil
}

func load(dir string, id ID) (*blob, error) {
	path := BlobPath(dir, id)
	f, err := os.Open(path)
	if err != nil {
		return nil, &StorageError{Path: path, Err: err}
	}
	defer f.Close()
	b, err := decode(f)
	if err != nil {
		return nil, &StorageError{Path: path, Err: err}
	}
	if b.Model.ID != id {
		return nil, &StorageError{Path: path, Err: fmt.Errorf("blob holds %q", b.Model.ID)}
	}
	return b, nil
}

func decode(r io.Reader) (*blob, error) {
	zr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	var b blob
	if err := gob.NewDecoder(zr).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if b.Version != blobVersion {
		return nil, fmt.Errorf("unsupported blob version %d", b.Version)
	}
	if b.Model == nil || b.Model.Regressor == nil {
		return nil, fmt.Errorf("blob holds no model")
	}
	return &b, nil
}

// LoadRun restores the run recorded by the manifest in dir. It fails when the
// manifest is missing or any blob was written by a different run, as happens
// when a retrain stops partway.
func LoadRun(dir string) (*Manifest, map[ID]*Model, error) {
	mf, err := ReadManifest(dir)
	if err != nil {
		return nil, nil, err
	}
	out := make(map[ID]*Model, len(IDs))
	for _, id := range IDs {
		b, err := load(dir, id)
		if err != nil {
			return nil, nil, err
		}
		if b.RunID != mf.RunID {
			return nil, nil, &StorageError{
				Path: BlobPath(dir, id),
				Err:  fmt.Errorf("blob from run %q, manifest names run %q", b.RunID, mf.RunID),
			}
		}
		out[id] = b.Model
	}
	return mf, out, nil
}

// RemoveManifest deletes the manifest in dir, if any.
func RemoveManifest(dir string) error {
	path := filepath.Join(dir, ManifestFile)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &StorageError{Path: path, Err: err}
	}
	return nil
}

// WriteManifest records a training run in dir.
func WriteManifest(dir string, mf *Manifest) error {
	path := filepath.Join(dir, ManifestFile)
	b, err := utils.PrettyJSON(mf)
	if err != nil {
		return &StorageError{Path: path, Err: err}
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return &StorageError{Path: path, Err: err}
	}
	return nil
}

// ReadManifest loads the manifest from dir.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Path: path, Err: err}
	}
	var mf Manifest
	if err := json.Unmarshal(b, &mf); err != nil {
		return nil, &StorageError{Path: path, Err: fmt.Errorf("parse manifest: %w", err)}
	}
	return &mf, nil
}
