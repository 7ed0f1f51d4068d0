package ml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const currentPointer = "CURRENT"

// FileStore keeps each artifact in its own directory under Dir and selects
// the live one through a CURRENT pointer file replaced by rename.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) Describe() string { return "file:" + s.Dir }

func (s *FileStore) Save(ctx context.Context, a *Artifact) error {
	model, encoders, err := encodeArtifact(a)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	staging, err := os.MkdirTemp(s.Dir, ".staging-")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(staging)
		}
	}()

	if err := writeFileSync(filepath.Join(staging, ModelFileName), model); err != nil {
		return err
	}
	if err := writeFileSync(filepath.Join(staging, EncodersFileName), encoders); err != nil {
		return err
	}
	if err := syncDir(staging); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	previous, _ := s.current()
	name := "artifacts-" + a.ID
	if err := os.Rename(staging, filepath.Join(s.Dir, name)); err != nil {
		return fmt.Errorf("publish artifact dir: %w", err)
	}
	committed = true

	tmp := filepath.Join(s.Dir, "."+currentPointer+".tmp")
	if err := writeFileSync(tmp, []byte(name+"\n")); err != nil {
		return err
	}
	if err := os.Rename(tmp, filepath.Join(s.Dir, currentPointer)); err != nil {
		return fmt.Errorf("swap current pointer: %w", err)
	}
	if err := syncDir(s.Dir); err != nil {
		return err
	}

	if previous != "" && previous != name {
		os.RemoveAll(filepath.Join(s.Dir, previous))
	}
	return nil
}

func (s *FileStore) Load(_ context.Context) (*Artifact, error) {
	name, err := s.current()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(s.Dir, name)
	model, err := os.ReadFile(filepath.Join(dir, ModelFileName))
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	encoders, err := os.ReadFile(filepath.Join(dir, EncodersFileName))
	if err != nil {
		return nil, fmt.Errorf("read encoders: %w", err)
	}
	return decodeArtifact(model, encoders)
}

func (s *FileStore) current() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, currentPointer))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrArtifactNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read current pointer: %w", err)
	}
	name := strings.TrimSpace(string(data))
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("corrupt current pointer %q", name)
	}
	return name, nil
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	if err := d.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return fmt.Errorf("sync dir %s: %w", dir, err)
	}
	return nil
}
