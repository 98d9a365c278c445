package sheet

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestReadCSV(t *testing.T) {
	input := "\ufeffBanner,,\nTITLE,PRICE,SKU\n\"Desk, oak\",120,D-1\nChair,,\n"

	grid, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(grid) != 4 {
		t.Fatalf("got %d rows, want 4", len(grid))
	}
	if grid[0][0] != "Banner" || grid[0][1] != nil {
		t.Errorf("first row = %#v", grid[0])
	}

	dec, err := Decode(grid)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(dec.Listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(dec.Listings))
	}
	if dec.Listings[0].Title != "Desk, oak" || dec.Listings[0].PriceValue() != 120 {
		t.Errorf("first listing = %+v", dec.Listings[0])
	}
	if _, ok := dec.Listings[1].OtherFields["SKU"]; ok {
		t.Errorf("empty SKU cell stored: %v", dec.Listings[1].OtherFields)
	}
}

func TestWriteCSV(t *testing.T) {
	enc := Encode(sampleListings()[:1], []string{"Title", "Price", "SKU"}, []Row{{"Banner"}, {}})

	data, err := WriteCSV(enc)
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	want := "Banner,,\n,,\nTitle,Price,SKU\nRoad bike,250,RB-1\n"
	if string(data) != want {
		t.Errorf("WriteCSV() = %q, want %q", data, want)
	}

	grid, err := ReadCSV(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	dec, err := Decode(grid)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if want := []Row{{"Banner"}, {}}; !reflect.DeepEqual(dec.PreHeaderRows, want) {
		t.Errorf("PreHeaderRows = %#v, want %#v", dec.PreHeaderRows, want)
	}

	again, err := WriteCSV(Encode(dec.Listings, dec.HeaderRow, dec.PreHeaderRows))
	if err != nil {
		t.Fatalf("WriteCSV() again error = %v", err)
	}
	if string(again) != want {
		t.Errorf("second export = %q, want %q", again, want)
	}
}
