package metadata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bradfitz/latlong"
)

// Details are the descriptive fields kept in the import catalog.
type Details struct {
	Make  string
	Model string
	GPS   GPSData
}

// DetailsReader reads Details from a media file.
type DetailsReader interface {
	Details(path string) (Details, error)
}

// Camera joins make and model, dropping the make when the model already repeats it.
func (d Details) Camera() string {
	switch {
	case d.Model == "":
		return d.Make
	case d.Make == "" || strings.HasPrefix(d.Model, d.Make):
		return d.Model
	}
	return d.Make + " " + d.Model
}

type GPSCoord struct {
	Latitude  float64
	Longitude float64
}

type GPSData struct {
	Valid    bool
	Position GPSCoord
	Timezone string
}

// NewGPSData looks up the time zone at pos. Timezone is empty over open sea.
func NewGPSData(pos GPSCoord) GPSData {
	return GPSData{
		Valid:    true,
		Position: pos,
		Timezone: latlong.LookupZoneName(pos.Latitude, pos.Longitude),
	}
}

// ParseGPSPosition parses exiftool's GPSPosition, e.g. `39 deg 34' 4.66" N, 2 deg 38' 40.34" E`.
func ParseGPSPosition(position string) (GPSData, error) {
	latLng := strings.Split(strings.TrimSpace(position), ",")
	if len(latLng) != 2 {
		return GPSData{}, fmt.Errorf("cannot parse GPS position %q", position)
	}

	lat, err := parseGPSPart(strings.TrimSpace(latLng[0]))
	if err != nil {
		return GPSData{}, err
	}
	lng, err := parseGPSPart(strings.TrimSpace(latLng[1]))
	if err != nil {
		return GPSData{}, err
	}
	return NewGPSData(GPSCoord{Latitude: lat, Longitude: lng}), nil
}

// parses `2 deg 38' 40.34" E`
func parseGPSPart(val string) (float64, error) {
	chunks := strings.Fields(val)
	if len(chunks) != 5 || chunks[1] != "deg" {
		return 0, fmt.Errorf("cannot parse GPS coordinate %q", val)
	}

	var parts [3]float64
	for i, chunk := range []string{chunks[0], chunks[2], chunks[3]} {
		f, err := strconv.ParseFloat(strings.Trim(chunk, " '\""), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse GPS coordinate %q: %w", val, err)
		}
		parts[i] = f
	}

	coord := parts[0] + parts[1]/60 + parts[2]/3600
	switch strings.ToUpper(chunks[4]) {
	case "N", "E":
		return coord, nil
	case "S", "W":
		return -coord, nil
	}
	return 0, fmt.Errorf("cannot parse GPS coordinate %q: bad reference", val)
}
