package waterdata

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/clearwaterlab/microplastics/dataframe"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tol                    float64
	}{
		{
			name: "same point",
			lat1: 35.0, lon1: -120.0, lat2: 35.0, lon2: -120.0,
			want: 0, tol: 1e-9,
		},
		{
			name: "one degree latitude",
			lat1: 35.0, lon1: -120.0, lat2: 36.0, lon2: -120.0,
			want: 111.19, tol: 0.5,
		},
		{
			name: "la to sf",
			lat1: 34.0522, lon1: -118.2437, lat2: 37.7749, lon2: -122.4194,
			want: 559, tol: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("HaversineKm = %v, want %v ± %v", got, tt.want, tt.tol)
			}
		})
	}
}

func TestNearestFacilityKm(t *testing.T) {
	facilities := []Facility{
		{Name: "north plant", Latitude: 36.0, Longitude: -120.0},
		{Name: "south plant", Latitude: 34.0, Longitude: -120.0},
	}

	d, err := NearestFacilityKm(34.1, -120.0, facilities)
	if err != nil {
		t.Fatalf("NearestFacilityKm failed: %v", err)
	}
	// 0.1 degrees of latitude is about 11 km; the south plant is closest.
	if d > 15 {
		t.Errorf("nearest distance = %v km, want < 15", d)
	}

	if _, err := NearestFacilityKm(34, -120, nil); err == nil {
		t.Error("no facilities should return an error")
	}
}

func TestAddFacilityDistance(t *testing.T) {
	frame := dataframe.New()
	if err := frame.AddNumeric(ColLatitude, []float64{34.0, math.NaN()}); err != nil {
		t.Fatal(err)
	}
	if err := frame.AddNumeric(ColLongitude, []float64{-120.0, -120.0}); err != nil {
		t.Fatal(err)
	}

	facilities := []Facility{{Name: "plant", Latitude: 34.0, Longitude: -120.0}}
	if err := AddFacilityDistance(frame, facilities); err != nil {
		t.Fatalf("AddFacilityDistance failed: %v", err)
	}

	dist, err := frame.Numeric(ColFacilityDist)
	if err != nil {
		t.Fatalf("distance column missing: %v", err)
	}
	if dist[0] > 1e-6 {
		t.Errorf("distance at facility = %v, want 0", dist[0])
	}
	if !math.IsNaN(dist[1]) {
		t.Errorf("distance with missing coordinates = %v, want NaN", dist[1])
	}
}

const fgdcSample = `<?xml version="1.0"?>
<metadata>
  <idinfo>
    <citation>
      <citeinfo>
        <origin>U.S. Geological Survey</origin>
        <pubdate>20200101</pubdate>
        <title>National Hydrography Dataset</title>
      </citeinfo>
    </citation>
    <descript>
      <abstract>Surface water features for the study region.</abstract>
      <purpose>Reference layer.</purpose>
    </descript>
    <spdom>
      <bounding>
        <westbc>-121.5</westbc>
        <eastbc>-119.5</eastbc>
        <northbc>36.5</northbc>
        <southbc>34.5</southbc>
      </bounding>
    </spdom>
  </idinfo>
</metadata>`

func TestReadFGDC(t *testing.T) {
	meta, err := ReadFGDC(strings.NewReader(fgdcSample))
	if err != nil {
		t.Fatalf("ReadFGDC failed: %v", err)
	}

	if meta.Title() != "National Hydrography Dataset" {
		t.Errorf("Title = %q", meta.Title())
	}
	if !strings.Contains(meta.Abstract(), "Surface water") {
		t.Errorf("Abstract = %q", meta.Abstract())
	}

	b := meta.Bounds()
	if b.West != -121.5 || b.North != 36.5 {
		t.Errorf("Bounds = %+v", b)
	}
	if !b.Contains(35.0, -120.0) {
		t.Error("point inside box reported outside")
	}
	if b.Contains(40.0, -120.0) {
		t.Error("point outside box reported inside")
	}
}

func TestReadFGDCMalformed(t *testing.T) {
	if _, err := ReadFGDC(strings.NewReader("<metadata><idinfo>")); err == nil {
		t.Error("truncated XML should return an error")
	}
}

func TestReadZipPopulation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zip_pop.xlsx")

	wb := excelize.NewFile()
	sheet := "Sheet1"
	cells := [][]interface{}{
		{"ZIP", "Population"},
		{"93401", 47000},
		{"93402", 8500},
		{"93405", "n/a"},
	}
	for r, row := range cells {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := wb.SetCellValue(sheet, cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := wb.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	frame, err := ReadZipPopulation(path, sheet)
	if err != nil {
		t.Fatalf("ReadZipPopulation failed: %v", err)
	}

	if frame.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", frame.NumRows())
	}
	zips, err := frame.Strings(ColZip)
	if err != nil {
		t.Fatal(err)
	}
	if zips[0] != "93401" {
		t.Errorf("zip[0] = %q, want 93401", zips[0])
	}
	pops, err := frame.Numeric(ColZipPop)
	if err != nil {
		t.Fatal(err)
	}
	if pops[0] != 47000 {
		t.Errorf("population[0] = %v, want 47000", pops[0])
	}
	if !math.IsNaN(pops[2]) {
		t.Errorf("population[2] = %v, want NaN for non-numeric cell", pops[2])
	}
}

func sampleFrame(t *testing.T) *dataframe.Frame {
	t.Helper()
	frame := dataframe.New()
	add := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	add(frame.AddString(ColSiteID, []string{"S1", "S2", "S3", "S4"}))
	add(frame.AddString(ColSampleDate, []string{"2021-03-01", "2021-03-01", "2021-03-08", "2021-03-08"}))
	add(frame.AddString(ColZip, []string{"93401", "93401", "93402", "93402"}))
	add(frame.AddString(ColTract, []string{"06079010100", "06079010100", "06079010200", "06079010200"}))
	add(frame.AddNumeric(ColLatitude, []float64{35.28, 35.29, 35.30, 35.31}))
	add(frame.AddNumeric(ColLongitude, []float64{-120.66, -120.65, -120.64, -120.63}))
	add(frame.AddNumeric(ColConcentration, []float64{12.4, 8.1, 15.0, 9.9}))
	add(frame.AddNumeric(ColVisualScore, []float64{3, 2, 4, 2}))
	add(frame.AddNumeric(ColTurbidity, []float64{5.1, 3.3, 7.8, 4.0}))
	add(frame.AddNumeric(ColTemperature, []float64{14.5, 14.9, 13.2, 15.1}))
	add(frame.AddNumeric(ColEColi, []float64{120, 45, 300, 60}))
	return frame
}

func TestPrepareModelingFrame(t *testing.T) {
	samples := sampleFrame(t)

	tractPop := dataframe.New()
	if err := tractPop.AddString(ColTract, []string{"06079010100", "06079010200"}); err != nil {
		t.Fatal(err)
	}
	if err := tractPop.AddNumeric(ColTractPop, []float64{4200, 3100}); err != nil {
		t.Fatal(err)
	}

	landUse := dataframe.New()
	if err := landUse.AddString(ColTract, []string{"06079010100", "06079010200"}); err != nil {
		t.Fatal(err)
	}
	if err := landUse.AddNumeric("developed_pct", []float64{0.62, 0.35}); err != nil {
		t.Fatal(err)
	}
	if err := landUse.AddNumeric("agriculture_pct", []float64{0.10, 0.44}); err != nil {
		t.Fatal(err)
	}

	aux := AuxTables{
		Facilities:      []Facility{{Name: "plant", Latitude: 35.27, Longitude: -120.68}},
		TractPopulation: tractPop,
		LandUse:         landUse,
	}

	frame, err := PrepareModelingFrame(samples, aux)
	if err != nil {
		t.Fatalf("PrepareModelingFrame failed: %v", err)
	}

	if frame.NumRows() != 4 {
		t.Errorf("rows = %d, want 4", frame.NumRows())
	}
	for _, col := range identifierColumns {
		if frame.HasColumn(col) {
			t.Errorf("identifier column %q survived", col)
		}
	}
	for _, col := range []string{ColConcentration, ColFacilityDist, ColTractPop, "developed_pct"} {
		if !frame.HasColumn(col) {
			t.Errorf("column %q missing from modeling frame", col)
		}
	}

	// Joined values land on the right rows.
	pops, err := frame.Numeric(ColTractPop)
	if err != nil {
		t.Fatal(err)
	}
	if pops[0] != 4200 || pops[2] != 3100 {
		t.Errorf("tract population join mismatch: %v", pops)
	}
}

func TestPrepareModelingFrameDropsIncompleteRows(t *testing.T) {
	samples := sampleFrame(t)

	// Tract table missing the second tract: joins produce NaN, and the
	// affected rows are removed.
	tractPop := dataframe.New()
	if err := tractPop.AddString(ColTract, []string{"06079010100"}); err != nil {
		t.Fatal(err)
	}
	if err := tractPop.AddNumeric(ColTractPop, []float64{4200}); err != nil {
		t.Fatal(err)
	}

	frame, err := PrepareModelingFrame(samples, AuxTables{TractPopulation: tractPop})
	if err != nil {
		t.Fatalf("PrepareModelingFrame failed: %v", err)
	}
	if frame.NumRows() != 2 {
		t.Errorf("rows = %d, want 2 after dropping unmatched tracts", frame.NumRows())
	}
}

func TestPrepareModelingFrameEmpty(t *testing.T) {
	if _, err := PrepareModelingFrame(dataframe.New(), AuxTables{}); err == nil {
		t.Error("empty samples should return an error")
	}
}

func TestLoadSamplesCSV(t *testing.T) {
	csv := strings.Join([]string{
		"site_id,sample_date,zip,tract_fips,latitude,longitude,particles_per_liter,visual_score,turbidity_ntu,temperature_c,ecoli_cfu",
		"S1,2021-03-01,93401,06079010100,35.28,-120.66,12.4,3,5.1,14.5,120",
		"S2,2021-03-01,93401,06079010100,35.29,-120.65,8.1,2,,14.9,45",
	}, "\n")

	path := filepath.Join(t.TempDir(), "samples.csv")
	if err := writeFile(path, csv); err != nil {
		t.Fatal(err)
	}

	frame, err := LoadSamples(path)
	if err != nil {
		t.Fatalf("LoadSamples failed: %v", err)
	}
	if frame.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", frame.NumRows())
	}

	turb, err := frame.Numeric(ColTurbidity)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(turb[1]) {
		t.Errorf("missing turbidity = %v, want NaN", turb[1])
	}
}
