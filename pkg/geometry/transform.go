package geometry

// TransformationMatrices maps world coordinates onto a map image. C1 and C2
// are the world origin of the image (the boundary's lower-left corner); D1
// and D2 are pixels per meter along x and y.
type TransformationMatrices struct {
	C1 float64 `json:"c1"`
	C2 float64 `json:"c2"`
	D1 float64 `json:"d1"`
	D2 float64 `json:"d2"`
}

// NewTransformationMatrices derives the world-to-pixel transform from the
// boundary's corner pair and the image size in pixels. A degenerate axis
// (zero extent) gets a zero scale.
func NewTransformationMatrices(lowerLeft, upperRight [2]float64, imageWidth, imageHeight int) TransformationMatrices {
	t := TransformationMatrices{C1: lowerLeft[0], C2: lowerLeft[1]}
	if dx := upperRight[0] - lowerLeft[0]; dx != 0 {
		t.D1 = float64(imageWidth) / dx
	}
	if dy := upperRight[1] - lowerLeft[1]; dy != 0 {
		t.D2 = float64(imageHeight) / dy
	}
	return t
}

// WorldToPixel converts a world (x, y) to image pixel coordinates.
func (t TransformationMatrices) WorldToPixel(x, y float64) (px, py float64) {
	return t.D1 * (x - t.C1), t.D2 * (y - t.C2)
}

// PixelToWorld is the inverse of WorldToPixel. It returns the origin for a
// degenerate axis.
func (t TransformationMatrices) PixelToWorld(px, py float64) (x, y float64) {
	x, y = t.C1, t.C2
	if t.D1 != 0 {
		x += px / t.D1
	}
	if t.D2 != 0 {
		y += py / t.D2
	}
	return x, y
}
