package mapstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// sidecarExt is appended to a map file name to form its metadata file.
const sidecarExt = ".meta.yaml"

// DirStore implements Store on a local directory tree:
//
//	<root>/<container>/<map name>            image bytes
//	<root>/<container>/<map name>.meta.yaml  flat key/value metadata
type DirStore struct {
	root   string
	logger *slog.Logger
}

// NewDirStore returns a DirStore rooted at root.
func NewDirStore(root string, logger *slog.Logger) *DirStore {
	return &DirStore{root: root, logger: logger.With("component", "mapstore", "backend", "dir")}
}

func (d *DirStore) containerPath(container string) (string, error) {
	if container == "" || strings.ContainsAny(container, `/\`) || container == "." || container == ".." {
		return "", fmt.Errorf("container %q: %w", container, ErrInvalidName)
	}
	return filepath.Join(d.root, container), nil
}

func validMapName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("map %q: %w", name, ErrInvalidName)
	}
	return nil
}

// ListMapEntries lists the maps in a container directory. A map without a
// sidecar is returned with empty metadata.
func (d *DirStore) ListMapEntries(ctx context.Context, container string) ([]Entry, error) {
	dir, err := d.containerPath(container)
	if err != nil {
		return nil, err
	}

	files, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("directory %s: %w", dir, ErrContainerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || strings.HasSuffix(f.Name(), sidecarExt) || strings.HasPrefix(f.Name(), ".") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		meta, err := readSidecar(filepath.Join(dir, f.Name()+sidecarExt))
		if err != nil {
			d.logger.Warn("read map metadata", "container", container, "map", f.Name(), "error", err)
			meta = map[string]string{}
		}
		entries = append(entries, Entry{Name: f.Name(), Metadata: meta})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func readSidecar(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	meta := map[string]string{}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return meta, nil
}

// FetchMapBytes reads a map image from disk.
func (d *DirStore) FetchMapBytes(ctx context.Context, container, name string) ([]byte, error) {
	dir, err := d.containerPath(container)
	if err != nil {
		return nil, err
	}
	if err := validMapName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", container, name, ErrMapNotFound)
	}
	return data, err
}

// PutMap writes the image and its sidecar, creating the container directory if needed.
func (d *DirStore) PutMap(ctx context.Context, container, name string, image []byte, metadata map[string]string) error {
	dir, err := d.containerPath(container)
	if err != nil {
		return err
	}
	if err := validMapName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	meta, err := yaml.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), image, 0o644); err != nil {
		return fmt.Errorf("write map: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+sidecarExt), meta, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	d.logger.Info("map stored", "container", container, "map", name, "bytes", len(image))
	return nil
}
