package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bingads-extractor/workers/extractor/internal/domain"
)

// FileStore reads {dataDir}/in/state.json and writes {dataDir}/out/state.json,
// the hand-over files of the host orchestrator.
type FileStore struct {
	inPath  string
	outPath string
}

func NewFileStore(dataDir string) *FileStore {
	return &FileStore{
		inPath:  filepath.Join(dataDir, "in", "state.json"),
		outPath: filepath.Join(dataDir, "out", "state.json"),
	}
}

// Load returns an empty state when the input file does not exist.
func (f *FileStore) Load(_ context.Context) (State, error) {
	raw, err := os.ReadFile(f.inPath)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, domain.ErrStateLoadFailed.Wrap(err)
	}
	return decode(raw)
}

func (f *FileStore) Save(_ context.Context, s State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return domain.ErrStateSaveFailed.Wrap(err)
	}
	if err := os.MkdirAll(filepath.Dir(f.outPath), 0o755); err != nil {
		return domain.ErrStateSaveFailed.Wrap(err)
	}
	if err := os.WriteFile(f.outPath, raw, 0o644); err != nil {
		return domain.ErrStateSaveFailed.Wrap(err)
	}
	return nil
}

func decode(raw []byte) (State, error) {
	var s State
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, domain.ErrStateLoadFailed.Wrap(fmt.Errorf("decode state: %w", err))
	}
	return s, nil
}
