// Package config loads trace defaults from a TOML file. Command-line flags
// that are set explicitly take precedence over values from the file.
package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// File is the on-disk configuration. Zero values mean "not set".
type File struct {
	Start      string   `toml:"start"`
	End        string   `toml:"end"`
	Interval   string   `toml:"interval"`
	Steps      *int     `toml:"steps"`
	Features   string   `toml:"features"`
	Split      *bool    `toml:"split"`
	ForceEnd   *bool    `toml:"forceend"`
	Attributes []string `toml:"attributes"`
	Observer   string   `toml:"observer"`

	Output Output `toml:"output"`
	TLE    TLE    `toml:"tle"`
}

// Output holds file naming and format settings.
type Output struct {
	Dir    string `toml:"dir"`
	Prefix string `toml:"prefix"`
	Suffix string `toml:"suffix"`
	Format string `toml:"format"`
	PRJ    *bool  `toml:"prj"`
	UseID  *bool  `toml:"id"`
}

// TLE holds element set source settings.
type TLE struct {
	Sources       []string `toml:"sources"`
	CacheDir      string   `toml:"cache_dir"`
	CacheMaxFiles int      `toml:"cache_max_files"`
}

// Load decodes the TOML file at path. Unknown keys are an error so typos do
// not silently fall back to defaults.
func Load(path string) (File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return File{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return File{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	if f.Steps != nil && *f.Steps < 0 {
		return File{}, errors.New("config: steps must not be negative")
	}
	return f, nil
}
