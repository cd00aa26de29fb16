package mapselect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/me/gofleet/internal/mapstore"
	"github.com/me/gofleet/pkg/geometry"
	"github.com/me/gofleet/pkg/model"
)

// Metadata keys attached to every stored map. Boundary values are integer
// millimeters; image dimensions are pixels.
const (
	KeyLowerLeftX   = "lowerLeftX"
	KeyLowerLeftY   = "lowerLeftY"
	KeyUpperRightX  = "upperRightX"
	KeyUpperRightY  = "upperRightY"
	KeyMinElevation = "minElevation"
	KeyMaxElevation = "maxElevation"
	KeyImageWidth   = "imageWidth"
	KeyImageHeight  = "imageHeight"
)

// millimetersPerMeter scales stored boundary values to world meters.
const millimetersPerMeter = 1000

// MetadataError describes why a stored map could not become a candidate.
type MetadataError struct {
	Map string
	Key string
	Err error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("map %s: metadata %s: %v", e.Map, e.Key, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// ErrMissingKey is wrapped by MetadataError when a required key is absent.
var ErrMissingKey = errors.New("missing key")

// ParseMapCandidate builds a MapCandidate from an entry's metadata. Keys are
// matched case-insensitively since S3 lower-cases user metadata.
func ParseMapCandidate(name string, metadata map[string]string) (model.MapCandidate, error) {
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[strings.ToLower(k)] = strings.TrimSpace(v)
	}

	var bounds [6]float64
	for i, key := range []string{KeyLowerLeftX, KeyLowerLeftY, KeyUpperRightX, KeyUpperRightY, KeyMinElevation, KeyMaxElevation} {
		raw, ok := meta[strings.ToLower(key)]
		if !ok {
			return model.MapCandidate{}, &MetadataError{Map: name, Key: key, Err: ErrMissingKey}
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.MapCandidate{}, &MetadataError{Map: name, Key: key, Err: err}
		}
		bounds[i] = v / millimetersPerMeter
	}

	var dims [2]int
	for i, key := range []string{KeyImageWidth, KeyImageHeight} {
		raw, ok := meta[strings.ToLower(key)]
		if !ok {
			return model.MapCandidate{}, &MetadataError{Map: name, Key: key, Err: ErrMissingKey}
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return model.MapCandidate{}, &MetadataError{Map: name, Key: key, Err: err}
		}
		dims[i] = v
	}

	return model.MapCandidate{
		Name:        name,
		Boundary:    geometry.NewBoundary(bounds[0], bounds[1], bounds[2], bounds[3], bounds[4], bounds[5]),
		ImageWidth:  dims[0],
		ImageHeight: dims[1],
	}, nil
}

// FormatMetadata is the inverse of ParseMapCandidate.
func FormatMetadata(c model.MapCandidate) map[string]string {
	mm := func(v float64) string {
		return strconv.FormatFloat(v*millimetersPerMeter, 'f', -1, 64)
	}
	b := c.Boundary
	return map[string]string{
		KeyLowerLeftX:   mm(b.X1),
		KeyLowerLeftY:   mm(b.Y1),
		KeyUpperRightX:  mm(b.X2),
		KeyUpperRightY:  mm(b.Y2),
		KeyMinElevation: mm(b.Z1),
		KeyMaxElevation: mm(b.Z2),
		KeyImageWidth:   strconv.Itoa(c.ImageWidth),
		KeyImageHeight:  strconv.Itoa(c.ImageHeight),
	}
}

// ContainerName returns the map container for an asset code.
func ContainerName(assetCode string) string {
	return strings.ToLower(assetCode)
}

// Provider turns a map store listing into map candidates.
type Provider struct {
	store  mapstore.Store
	logger *slog.Logger
}

// NewProvider creates a Provider over store.
func NewProvider(store mapstore.Store, logger *slog.Logger) *Provider {
	return &Provider{store: store, logger: logger.With("component", "map-provider")}
}

// ListMaps returns the candidates for an asset sorted by name. Entries with
// missing or malformed metadata are skipped. A store failure yields an empty
// listing: callers treat it as "no map available".
func (p *Provider) ListMaps(ctx context.Context, assetCode string) []model.MapCandidate {
	entries, err := p.store.ListMapEntries(ctx, ContainerName(assetCode))
	if err != nil {
		p.logger.Error("unable to find any map files", "asset_code", assetCode, "error", err)
		return nil
	}

	candidates := make([]model.MapCandidate, 0, len(entries))
	for _, e := range entries {
		c, err := ParseMapCandidate(e.Name, e.Metadata)
		if err != nil {
			p.logger.Warn("skipping map", "asset_code", assetCode, "map", e.Name, "error", err)
			continue
		}
		candidates = append(candidates, c)
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })
	return candidates
}
