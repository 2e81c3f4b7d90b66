package replay

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"awreplay/game"

	"github.com/tidwall/gjson"
)

// MapDef is the terrain grid of a match. Archives only name their map, so
// the grid comes from a map export: either the text form (one row per line,
// comma separated terrain ids) or the JSON map info document.
type MapDef struct {
	Width      int
	Height     int
	TerrainIDs []int // row-major
}

// ParseMap accepts either map export format.
func ParseMap(data []byte) (*MapDef, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return ParseMapJSON(trimmed)
	}
	return ParseMapText(string(data))
}

// ParseMapText reads the text export. Blank lines are skipped and cells may
// be padded with spaces; every row must have the same width.
func ParseMapText(text string) (*MapDef, error) {
	m := &MapDef{}
	row := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cells := strings.Split(line, ",")
		if m.Width == 0 {
			m.Width = len(cells)
		} else if len(cells) != m.Width {
			return nil, invalid(fmt.Sprintf("map[%d]", row), "row has %d tiles, want %d", len(cells), m.Width)
		}
		for col, cell := range cells {
			field := fmt.Sprintf("map[%d][%d]", row, col)
			id, err := strconv.Atoi(strings.TrimSpace(cell))
			if err != nil {
				return nil, invalid(field, "terrain id %q is not a number", strings.TrimSpace(cell))
			}
			if err := checkTerrain(field, id); err != nil {
				return nil, err
			}
			m.TerrainIDs = append(m.TerrainIDs, id)
		}
		row++
	}
	if row == 0 {
		return nil, invalid("map", "empty")
	}
	m.Height = row
	return m, nil
}

// ParseMapJSON reads the JSON map info document, whose "Terrain Map" is
// stored column by column.
func ParseMapJSON(data []byte) (*MapDef, error) {
	if !gjson.ValidBytes(data) {
		return nil, invalid("map", "not valid JSON")
	}
	columns := gjson.GetBytes(data, "Terrain Map")
	if !columns.IsArray() {
		return nil, invalid("map.Terrain Map", "missing")
	}

	cols := columns.Array()
	if len(cols) == 0 || len(cols[0].Array()) == 0 {
		return nil, invalid("map.Terrain Map", "empty")
	}
	m := &MapDef{Width: len(cols), Height: len(cols[0].Array())}
	m.TerrainIDs = make([]int, m.Width*m.Height)
	for x, col := range cols {
		cells := col.Array()
		if len(cells) != m.Height {
			return nil, invalid(fmt.Sprintf("map.Terrain Map[%d]", x), "column has %d tiles, want %d", len(cells), m.Height)
		}
		for y, cell := range cells {
			field := fmt.Sprintf("map.Terrain Map[%d][%d]", x, y)
			if cell.Type != gjson.Number {
				return nil, invalid(field, "terrain id %s is not a number", cell.Raw)
			}
			id := int(cell.Int())
			if err := checkTerrain(field, id); err != nil {
				return nil, err
			}
			m.TerrainIDs[y*m.Width+x] = id
		}
	}

	if w := gjson.GetBytes(data, "Size X"); w.Exists() && int(w.Int()) != m.Width {
		return nil, invalid("map.Size X", "declares %d columns, terrain has %d", w.Int(), m.Width)
	}
	if h := gjson.GetBytes(data, "Size Y"); h.Exists() && int(h.Int()) != m.Height {
		return nil, invalid("map.Size Y", "declares %d rows, terrain has %d", h.Int(), m.Height)
	}
	return m, nil
}

func checkTerrain(field string, id int) error {
	if _, _, ok := game.TerrainByID(id); !ok {
		return invalid(field, "unknown terrain id %d", id)
	}
	return nil
}

func (m *MapDef) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// String renders the text export form.
func (m *MapDef) String() string {
	var b strings.Builder
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if x > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(m.TerrainIDs[y*m.Width+x]))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
