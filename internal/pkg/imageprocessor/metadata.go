package imageprocessor

import (
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// ExtractGPS reads EXIF GPS coordinates from the image at path. Both return
// values are nil when the file carries no usable GPS tags; extraction is
// best-effort and never fails the caller.
func ExtractGPS(path string) (lat *float64, lng *float64) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, nil
	}

	latitude, longitude, err := x.LatLong()
	if err != nil {
		return nil, nil
	}

	return &latitude, &longitude
}
