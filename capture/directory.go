package capture

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ImageFile is one frame of an image sequence on disk.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the frame number parsed from the file name, or -1 when it has none.
	Frame int
}

var frameNumber = regexp.MustCompile(`(\d+)\D*$`)

// ListDirectoryImageFiles lists the image files of a directory in frame order.
//
// Files are ordered by the last number in their name (frame-7.jpg before
// frame-10.jpg); files without a number sort after numbered ones by name.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: The image files in playback order.
// - error: Error if the directory cannot be read.
func ListDirectoryImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".bmp":
		default:
			continue
		}

		frame := -1
		if m := frameNumber.FindStringSubmatch(strings.TrimSuffix(name, filepath.Ext(name))); m != nil {
			if n, convErr := strconv.Atoi(m[1]); convErr == nil {
				frame = n
			}
		}
		files = append(files, ImageFile{Path: filepath.Join(dir, name), Frame: frame})
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		switch {
		case a.Frame >= 0 && b.Frame >= 0 && a.Frame != b.Frame:
			return a.Frame < b.Frame
		case (a.Frame >= 0) != (b.Frame >= 0):
			return a.Frame >= 0
		default:
			return a.Path < b.Path
		}
	})

	return files, nil
}

// directorySource replays an image sequence from disk.
type directorySource struct {
	files []ImageFile
	next  int
}

// OpenDirectory opens a directory of still images as a finite frame source.
// Files that fail to decode are reported as StatusUnavailable and skipped.
func OpenDirectory(dir string) (Source, error) {
	files, err := ListDirectoryImageFiles(dir)
	if err != nil {
		return nil, errors.Wrapf(ErrDeviceOpen, "directory %s: %v", dir, err)
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(ErrDeviceOpen, "directory %s: no image files", dir)
	}
	return &directorySource{files: files}, nil
}

func (s *directorySource) Read(dst *gocv.Mat) Status {
	if s.next >= len(s.files) {
		return StatusExhausted
	}
	file := s.files[s.next]
	s.next++

	data, err := os.ReadFile(file.Path)
	if err != nil {
		return StatusUnavailable
	}
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return StatusUnavailable
	}
	defer img.Close()
	if img.Empty() {
		return StatusUnavailable
	}

	img.CopyTo(dst)
	return StatusCaptured
}

func (s *directorySource) Close() error {
	s.files = nil
	return nil
}
