package service

import (
	"errors"
	"fmt"
	"io"

	"github.com/abema/go-mp4"
)

var errNoMovieHeader = errors.New("mp4: movie header not found")

// probeMP4Duration reads the duration in seconds from the moov/mvhd box of an
// ISO-BMFF (MP4/QuickTime) file without loading the media data.
func probeMP4Duration(r io.ReaderAt, size int64) (float64, error) {
	boxes, err := mp4.ExtractBoxWithPayload(io.NewSectionReader(r, 0, size), nil,
		mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()})
	if err != nil {
		return 0, fmt.Errorf("mp4: %w", err)
	}
	if len(boxes) == 0 {
		return 0, errNoMovieHeader
	}
	mvhd, ok := boxes[0].Payload.(*mp4.Mvhd)
	if !ok {
		return 0, errNoMovieHeader
	}
	if mvhd.Timescale == 0 {
		return 0, errors.New("mp4: zero timescale")
	}

	duration := uint64(mvhd.DurationV0)
	if mvhd.GetVersion() == 1 {
		duration = mvhd.DurationV1
	}
	return float64(duration) / float64(mvhd.Timescale), nil
}
