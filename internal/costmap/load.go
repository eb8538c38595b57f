package costmap

import (
	"encoding/json"
	"fmt"
	"os"
)

// gridFile is the JSON on-disk form of a Grid. Cells are row-major ints
// rather than a byte slice so the file stays human-readable (encoding/json
// would base64-encode a []uint8).
type gridFile struct {
	SizeX      int     `json:"size_x"`
	SizeY      int     `json:"size_y"`
	Resolution float64 `json:"resolution"`
	OriginX    float64 `json:"origin_x"`
	OriginY    float64 `json:"origin_y"`
	Cells      []int   `json:"cells"`
}

// Load reads a grid from a JSON file written by Save.
func Load(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read costmap file: %w", err)
	}
	var f gridFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse costmap file: %w", err)
	}
	g, err := NewGrid(f.SizeX, f.SizeY, f.Resolution, f.OriginX, f.OriginY)
	if err != nil {
		return nil, err
	}
	if len(f.Cells) != f.SizeX*f.SizeY {
		return nil, fmt.Errorf("costmap cell count %d does not match %dx%d grid", len(f.Cells), f.SizeX, f.SizeY)
	}
	for i, v := range f.Cells {
		if v < 0 || v > Unknown {
			return nil, fmt.Errorf("costmap cell %d has value %d outside [0,255]", i, v)
		}
		g.cells[i] = uint8(v)
	}
	return g, nil
}

// Save writes the grid to a JSON file.
func (g *Grid) Save(path string) error {
	f := gridFile{
		SizeX:      g.sizeX,
		SizeY:      g.sizeY,
		Resolution: g.resolution,
		OriginX:    g.originX,
		OriginY:    g.originY,
		Cells:      make([]int, len(g.cells)),
	}
	for i, v := range g.cells {
		f.Cells[i] = int(v)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal costmap: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write costmap file: %w", err)
	}
	return nil
}
