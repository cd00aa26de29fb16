// Package mapstore lists and downloads georeferenced map images together
// with the key/value metadata attached to them.
package mapstore

import (
	"context"
	"errors"
)

// ErrContainerNotFound is returned when the container for an asset does not exist.
var ErrContainerNotFound = errors.New("map container not found")

// ErrMapNotFound is returned when a named map does not exist in its container.
var ErrMapNotFound = errors.New("map not found")

// ErrInvalidName is returned when a container or map name cannot be stored.
var ErrInvalidName = errors.New("invalid name")

// Entry is one stored map with its raw metadata.
type Entry struct {
	Name     string
	Metadata map[string]string
}

// Store is the blob store holding map images, one container per asset.
type Store interface {
	// ListMapEntries lists every map in container with its metadata.
	ListMapEntries(ctx context.Context, container string) ([]Entry, error)

	// FetchMapBytes downloads the image bytes of a single map.
	FetchMapBytes(ctx context.Context, container, name string) ([]byte, error)

	// PutMap uploads an image with its metadata, replacing any existing map of the same name.
	PutMap(ctx context.Context, container, name string, image []byte, metadata map[string]string) error
}
