package waterdata

import (
	"encoding/xml"
	"io"
	"os"

	"github.com/clearwaterlab/microplastics/pkg/errors"
)

// FGDCMetadata is the subset of an FGDC geospatial metadata document the
// analysis cares about: citation, abstract, and the bounding box of the
// hydrography reference layer.
type FGDCMetadata struct {
	XMLName xml.Name `xml:"metadata"`
	IDInfo  struct {
		Citation struct {
			CiteInfo struct {
				Origin  string `xml:"origin"`
				PubDate string `xml:"pubdate"`
				Title   string `xml:"title"`
			} `xml:"citeinfo"`
		} `xml:"citation"`
		Descript struct {
			Abstract string `xml:"abstract"`
			Purpose  string `xml:"purpose"`
		} `xml:"descript"`
		SpDom struct {
			Bounding BoundingBox `xml:"bounding"`
		} `xml:"spdom"`
	} `xml:"idinfo"`
}

// BoundingBox is the spatial extent in decimal degrees.
type BoundingBox struct {
	West  float64 `xml:"westbc"`
	East  float64 `xml:"eastbc"`
	North float64 `xml:"northbc"`
	South float64 `xml:"southbc"`
}

// Title returns the dataset title from the citation.
func (m *FGDCMetadata) Title() string {
	return m.IDInfo.Citation.CiteInfo.Title
}

// Abstract returns the dataset abstract.
func (m *FGDCMetadata) Abstract() string {
	return m.IDInfo.Descript.Abstract
}

// Bounds returns the dataset bounding box.
func (m *FGDCMetadata) Bounds() BoundingBox {
	return m.IDInfo.SpDom.Bounding
}

// Contains reports whether a point falls inside the bounding box.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.South && lat <= b.North && lon >= b.West && lon <= b.East
}

// ReadFGDC parses an FGDC metadata document.
func ReadFGDC(r io.Reader) (*FGDCMetadata, error) {
	var meta FGDCMetadata
	if err := xml.NewDecoder(r).Decode(&meta); err != nil {
		return nil, errors.Wrap(err, "parsing FGDC metadata")
	}
	return &meta, nil
}

// ReadFGDCFile parses an FGDC metadata document from a file.
func ReadFGDCFile(path string) (*FGDCMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening metadata %s", path)
	}
	defer f.Close()
	return ReadFGDC(f)
}
