package screen

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"bcistim/engine"
)

var fontExts = map[string]bool{".ttf": true, ".ttc": true, ".otf": true}

// systemFonts are tried last, in order.
var systemFonts = map[string][]string{
	"windows": {`C:\Windows\Fonts\arial.ttf`, `C:\Windows\Fonts\segoeui.ttf`},
	"darwin":  {"/System/Library/Fonts/Helvetica.ttc", "/Library/Fonts/Arial.ttf"},
	"linux": {
		"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/usr/share/fonts/noto/NotoSans-Regular.ttf",
	},
}

// ResolveFont picks the cue font. display.font may name a file or a
// directory of fonts. Without it the catalog's fonts/ folder, the catalog
// itself and ./fonts are searched before the system fonts. It returns ""
// when nothing is found and cues fall back to a cross.
func ResolveFont(s engine.DisplaySettings, assetsDir string) string {
	var dirs []string
	if s.FontFile != "" {
		info, err := os.Stat(s.FontFile)
		if err == nil && !info.IsDir() {
			return s.FontFile
		}
		if err == nil {
			dirs = append(dirs, s.FontFile)
		}
	}
	if assetsDir != "" {
		dirs = append(dirs, filepath.Join(assetsDir, "fonts"), assetsDir)
	}
	dirs = append(dirs, "fonts")

	for _, dir := range dirs {
		if p := firstFont(dir); p != "" {
			return p
		}
	}
	for _, p := range systemFonts[runtime.GOOS] {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// firstFont returns the first font file of dir in name order.
func firstFont(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if !entry.IsDir() && fontExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			return filepath.Join(dir, entry.Name())
		}
	}
	return ""
}
