package mapselect

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/me/gofleet/internal/mapstore"
	"github.com/me/gofleet/pkg/geometry"
	"github.com/me/gofleet/pkg/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validMetadata() map[string]string {
	return map[string]string{
		"lowerLeftX":   "0",
		"lowerLeftY":   "0",
		"upperRightX":  "10000",
		"upperRightY":  "10000",
		"minElevation": "0",
		"maxElevation": "5000",
		"imageWidth":   "100",
		"imageHeight":  "100",
	}
}

func TestParseMapCandidate(t *testing.T) {
	c, err := ParseMapCandidate("deck.png", validMetadata())
	if err != nil {
		t.Fatalf("ParseMapCandidate: %v", err)
	}
	want := geometry.NewBoundary(0, 0, 10, 10, 0, 5)
	if c.Boundary != want {
		t.Errorf("Boundary = %+v, want %+v", c.Boundary, want)
	}
	if c.ImageWidth != 100 || c.ImageHeight != 100 || c.Name != "deck.png" {
		t.Errorf("candidate = %+v", c)
	}
}

func TestParseMapCandidate_LowercaseKeys(t *testing.T) {
	meta := map[string]string{}
	for k, v := range validMetadata() {
		meta[strings.ToLower(k)] = v
	}
	if _, err := ParseMapCandidate("deck.png", meta); err != nil {
		t.Errorf("lower-cased keys: %v", err)
	}
}

func TestParseMapCandidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m map[string]string)
		key     string
		missing bool
	}{
		{"missing imageHeight", func(m map[string]string) { delete(m, "imageHeight") }, KeyImageHeight, true},
		{"missing maxElevation", func(m map[string]string) { delete(m, "maxElevation") }, KeyMaxElevation, true},
		{"bad float", func(m map[string]string) { m["lowerLeftY"] = "1,5" }, KeyLowerLeftY, false},
		{"bad int", func(m map[string]string) { m["imageWidth"] = "100.5" }, KeyImageWidth, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := validMetadata()
			tt.mutate(meta)
			_, err := ParseMapCandidate("m.png", meta)
			var metaErr *MetadataError
			if !errors.As(err, &metaErr) {
				t.Fatalf("err = %v, want *MetadataError", err)
			}
			if metaErr.Key != tt.key {
				t.Errorf("Key = %q, want %q", metaErr.Key, tt.key)
			}
			if got := errors.Is(err, ErrMissingKey); got != tt.missing {
				t.Errorf("errors.Is(ErrMissingKey) = %v, want %v", got, tt.missing)
			}
			var numErr *strconv.NumError
			if !tt.missing && !errors.As(err, &numErr) {
				t.Errorf("expected wrapped *strconv.NumError, got %v", err)
			}
		})
	}
}

func TestFormatMetadata_RoundTrip(t *testing.T) {
	c := model.MapCandidate{
		Name:        "x.png",
		Boundary:    geometry.NewBoundary(1.25, -3.5, 12, 7.75, -0.5, 4),
		ImageWidth:  640,
		ImageHeight: 480,
	}
	meta := FormatMetadata(c)
	if meta[KeyLowerLeftX] != "1250" || meta[KeyMinElevation] != "-500" {
		t.Errorf("metadata = %v", meta)
	}
	got, err := ParseMapCandidate("x.png", meta)
	if err != nil {
		t.Fatalf("ParseMapCandidate: %v", err)
	}
	if got != c {
		t.Errorf("round trip = %+v, want %+v", got, c)
	}
}

// fakeStore is an in-memory mapstore.Store.
type fakeStore struct {
	entries map[string][]mapstore.Entry
	images  map[string][]byte // container/name
	listErr error
	puts    int
}

func (f *fakeStore) ListMapEntries(ctx context.Context, container string) ([]mapstore.Entry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	e, ok := f.entries[container]
	if !ok {
		return nil, mapstore.ErrContainerNotFound
	}
	return e, nil
}

func (f *fakeStore) FetchMapBytes(ctx context.Context, container, name string) ([]byte, error) {
	b, ok := f.images[container+"/"+name]
	if !ok {
		return nil, mapstore.ErrMapNotFound
	}
	return b, nil
}

func (f *fakeStore) PutMap(ctx context.Context, container, name string, image []byte, metadata map[string]string) error {
	f.puts++
	if f.entries == nil {
		f.entries = map[string][]mapstore.Entry{}
	}
	if f.images == nil {
		f.images = map[string][]byte{}
	}
	f.entries[container] = append(f.entries[container], mapstore.Entry{Name: name, Metadata: metadata})
	f.images[container+"/"+name] = image
	return nil
}

func TestProvider_SkipsMalformedEntries(t *testing.T) {
	noHeight := validMetadata()
	delete(noHeight, "imageHeight")
	badNumber := validMetadata()
	badNumber["upperRightX"] = "ten"

	store := &fakeStore{entries: map[string][]mapstore.Entry{
		"jsv": {
			{Name: "z-good.png", Metadata: validMetadata()},
			{Name: "no-height.png", Metadata: noHeight},
			{Name: "bad-number.png", Metadata: badNumber},
			{Name: "a-good.png", Metadata: validMetadata()},
		},
	}}

	got := NewProvider(store, discardLogger()).ListMaps(context.Background(), "JSV")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	if got[0].Name != "a-good.png" || got[1].Name != "z-good.png" {
		t.Errorf("names = [%s %s], want sorted good entries", got[0].Name, got[1].Name)
	}
}

func TestProvider_StoreFailureYieldsEmpty(t *testing.T) {
	p := NewProvider(&fakeStore{}, discardLogger())
	if got := p.ListMaps(context.Background(), "HUA"); len(got) != 0 {
		t.Errorf("missing container: got %d candidates, want 0", len(got))
	}

	p = NewProvider(&fakeStore{listErr: errors.New("connection refused")}, discardLogger())
	if got := p.ListMaps(context.Background(), "HUA"); len(got) != 0 {
		t.Errorf("store error: got %d candidates, want 0", len(got))
	}
}
