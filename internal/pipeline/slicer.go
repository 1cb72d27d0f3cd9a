package pipeline

import (
	"os"

	"speakerline/internal/identity"
	"speakerline/internal/media/wavclip"
)

// clipSlicers opens WAV slicers that write clips into one directory and
// remove it once resolution ends.
type clipSlicers struct {
	dir string
}

func (c clipSlicers) Open(audioPath string) (identity.Slicer, func(), error) {
	source, err := wavclip.Open(audioPath)
	if err != nil {
		return nil, nil, err
	}
	slicer, err := wavclip.NewSlicer(source, c.dir)
	if err != nil {
		return nil, nil, err
	}
	return slicer, func() { _ = os.RemoveAll(c.dir) }, nil
}
