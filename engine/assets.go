package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var assetExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// ListStimulusAssets returns the images of a catalog folder ordered by
// number. Files must be named 1.jpg, 2.jpg, ... without gaps; other files
// are ignored.
func ListStimulusAssets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: stimulus folder: %v", ErrResourceAcquisition, err)
	}

	byNumber := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !assetExtensions[ext] {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		if err != nil || n <= 0 {
			continue
		}
		if prev, dup := byNumber[n]; dup {
			return nil, fmt.Errorf("%w: stimulus %d is both %s and %s", ErrResourceAcquisition, n, prev, entry.Name())
		}
		byNumber[n] = entry.Name()
	}
	if len(byNumber) == 0 {
		return nil, fmt.Errorf("%w: no numbered images in %s", ErrResourceAcquisition, dir)
	}

	numbers := make([]int, 0, len(byNumber))
	for n := range byNumber {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	paths := make([]string, len(numbers))
	for i, n := range numbers {
		if n != i+1 {
			return nil, fmt.Errorf("%w: stimulus %d missing in %s", ErrResourceAcquisition, i+1, dir)
		}
		paths[i] = filepath.Join(dir, byNumber[n])
	}
	return paths, nil
}
