package imaging

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/lafriks/go-tiled"

	"github.com/ironsheep/tileset-tools-mcp/internal/tileset"
)

// TSX format versions written to the tileset element.
const (
	tsxVersion      = "1.10"
	tsxTiledVersion = "1.10.2"

	collisionProperty = "collision"
)

// TSXOptions names the tileset and the atlas image it points to.
type TSXOptions struct {
	// Name is the tileset name shown in the editor. Defaults to "tileset".
	Name string

	// ImageSource is the atlas path as written into the <image> element,
	// relative to the TSX file. Defaults to "tileset.png".
	ImageSource string
}

// tsxTileset is the root element of a Tiled external tileset as written by
// EncodeTSX. Reading goes through tiled.Tileset instead.
type tsxTileset struct {
	XMLName      xml.Name  `xml:"tileset"`
	Version      string    `xml:"version,attr"`
	TiledVersion string    `xml:"tiledversion,attr"`
	Name         string    `xml:"name,attr"`
	TileWidth    int       `xml:"tilewidth,attr"`
	TileHeight   int       `xml:"tileheight,attr"`
	TileCount    int       `xml:"tilecount,attr"`
	Columns      int       `xml:"columns,attr"`
	Image        tsxImage  `xml:"image"`
	Tiles        []tsxTile `xml:"tile"`
}

type tsxImage struct {
	Source string `xml:"source,attr"`
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
}

// tsxTile carries per-tile properties. Only tiles with properties are
// written; Tiled treats absent tiles as plain.
type tsxTile struct {
	ID         int           `xml:"id,attr"`
	Properties []tsxProperty `xml:"properties>property"`
}

type tsxProperty struct {
	Name  string `xml:"name,attr"`
	Type  string `xml:"type,attr,omitempty"`
	Value string `xml:"value,attr"`
}

// EncodeTSX renders res as a Tiled tileset. Every solid tile gets a bool
// "collision" property so maps built from the atlas can look it up by tile id.
func EncodeTSX(res *tileset.Result, opts TSXOptions) ([]byte, error) {
	if res == nil || res.Grid.TileSize <= 0 {
		return nil, fmt.Errorf("no processed tileset to export")
	}
	if opts.Name == "" {
		opts.Name = "tileset"
	}
	if opts.ImageSource == "" {
		opts.ImageSource = "tileset.png"
	}

	ts := res.Grid.TileSize
	doc := tsxTileset{
		Version:      tsxVersion,
		TiledVersion: tsxTiledVersion,
		Name:         opts.Name,
		TileWidth:    ts,
		TileHeight:   ts,
		TileCount:    len(res.Tiles),
		Columns:      res.Width / ts,
		Image: tsxImage{
			Source: opts.ImageSource,
			Width:  res.Width,
			Height: res.Height,
		},
	}
	for _, tile := range res.Tiles {
		if !tile.Solid {
			continue
		}
		doc.Tiles = append(doc.Tiles, tsxTile{
			ID:         tile.ID,
			Properties: []tsxProperty{{Name: collisionProperty, Type: "bool", Value: "true"}},
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", " ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode tsx: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// DecodeTSX parses a Tiled external tileset, such as one written by EncodeTSX
// or saved from the editor.
func DecodeTSX(data []byte) (*tiled.Tileset, error) {
	var ts tiled.Tileset
	if err := xml.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("failed to decode tsx: %w", err)
	}
	return &ts, nil
}

// CollisionIDs returns, in document order, the ids of tiles whose
// "collision" property is true.
func CollisionIDs(ts *tiled.Tileset) []int {
	var ids []int
	for _, tile := range ts.Tiles {
		if tile.Properties.GetBool(collisionProperty) {
			ids = append(ids, int(tile.ID))
		}
	}
	return ids
}

// checkTSX reads an encoded tileset back and confirms that its collision
// tiles are exactly the ones the manifest flags.
func checkTSX(data, manifest []byte) error {
	ts, err := DecodeTSX(data)
	if err != nil {
		return err
	}
	m, err := tileset.ParseManifest(manifest)
	if err != nil {
		return err
	}

	flags := m.Collisions()
	ids := CollisionIDs(ts)
	n := 0
	for _, solid := range flags {
		if solid {
			n++
		}
	}
	if len(ids) != n {
		return fmt.Errorf("tsx lists %d collision tiles, manifest has %d", len(ids), n)
	}
	for _, id := range ids {
		if id < 0 || id >= len(flags) || !flags[id] {
			return fmt.Errorf("tsx marks tile %d as collision, manifest does not", id)
		}
	}
	return nil
}
