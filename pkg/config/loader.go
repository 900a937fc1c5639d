package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/maruel/natural"
	"github.com/rs/zerolog"
)

// Extensions lists the settings file formats, in the order they are tried
// within one pattern.
var Extensions = []string{".yaml", ".yml", ".json", ".cue"}

// Loader finds and loads settings files.
type Loader struct {
	// ProgramName names the files, as in /etc/<ProgramName>.yaml.
	ProgramName string

	// BaseDirectories are searched in order. Defaults to /etc, the home
	// directory and $XDG_CONFIG_HOME (or ~/.config).
	BaseDirectories []string

	// Files, when set, disables the search and loads exactly these files.
	Files []string

	// Strict makes a file that fails to load an error. Otherwise it is
	// logged and skipped.
	Strict bool

	// Logger receives progress messages. Defaults to a disabled logger.
	Logger *zerolog.Logger
}

// NewLoader returns a loader for programName with the default search path.
func NewLoader(programName string) *Loader {
	return &Loader{ProgramName: programName}
}

func (l *Loader) logger() *zerolog.Logger {
	if l.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return l.Logger
}

// DefaultBaseDirectories returns /etc, the home directory and the XDG
// config directory. "~" is kept symbolic so that Patterns can give files in
// the home directory a leading dot.
func DefaultBaseDirectories() []string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		xdg = "~/.config"
	}
	return []string{"/etc", "~", xdg}
}

// Patterns returns the glob patterns searched, a main file and a modular
// directory per base directory and extension, in load order.
func (l *Loader) Patterns() []string {
	dirs := l.BaseDirectories
	if dirs == nil {
		dirs = DefaultBaseDirectories()
	}

	var patterns []string
	for _, dir := range dirs {
		prefix := ""
		if dir == "~" {
			prefix = "."
		}
		for _, ext := range Extensions {
			patterns = append(patterns, filepath.Join(dir, prefix+l.ProgramName+ext))
		}
		modular := filepath.Join(dir, prefix+l.ProgramName+".d")
		for _, ext := range Extensions {
			patterns = append(patterns, filepath.Join(modular, "*"+ext))
		}
	}
	return patterns
}

// AvailableFiles expands Patterns. Matches of one pattern are sorted in
// natural order.
func (l *Loader) AvailableFiles() ([]string, error) {
	if l.Files != nil {
		return l.Files, nil
	}

	var files []string
	for _, pattern := range l.Patterns() {
		expanded := expandHome(pattern)
		l.logger().Trace().Str("pattern", expanded).Msg("Matching filename pattern")
		matches, err := filepath.Glob(expanded)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		sort.Sort(natural.StringSlice(matches))
		files = append(files, matches...)
	}
	return files, nil
}

// Load reads every available file onto the defaults and validates the
// result. It also returns the files that were loaded.
func (l *Loader) Load(defaults Settings) (*Settings, []string, error) {
	parser, err := NewParser()
	if err != nil {
		return nil, nil, err
	}

	files, err := l.AvailableFiles()
	if err != nil {
		return nil, nil, err
	}

	settings := defaults
	var loaded []string
	for _, file := range files {
		l.logger().Debug().Str("file", file).Msg("Loading settings file")
		if err := parser.ParseFile(file, &settings); err != nil {
			if l.Strict || l.Files != nil {
				return nil, loaded, fmt.Errorf("failed to load %s: %w", file, err)
			}
			l.logger().Warn().Err(err).Str("file", file).Msg("Failed to load settings file, ignoring it")
			continue
		}
		loaded = append(loaded, file)
	}

	if err := parser.Validate(&settings); err != nil {
		return nil, loaded, fmt.Errorf("%s: %w", describeFiles(loaded), err)
	}

	l.logger().Debug().Int("files", len(loaded)).Msg("Loaded settings")
	return &settings, loaded, nil
}

func describeFiles(files []string) string {
	switch len(files) {
	case 0:
		return "defaults"
	case 1:
		return files[0]
	default:
		return fmt.Sprintf("%s (+%d more)", files[0], len(files)-1)
	}
}
