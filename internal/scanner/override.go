package scanner

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// overrideBase is the file name (before extension) of the optional
// per-route override file at a method boundary.
const overrideBase = "feature"

// overrideExts lists the formats an override file may use, in probe
// order.
var overrideExts = []string{"yaml", "yml", "json", "toml"}

// Override carries explicit per-route configuration. Every field is
// optional; a set field takes precedence over the inferred value while
// unset fields keep theirs. Function fields name registry entries.
type Override struct {
	Method      string `mapstructure:"method"      validate:"omitempty,oneof=get post put delete patch head options"`
	Path        string `mapstructure:"path"        validate:"omitempty,startswith=/"`
	Steps       string `mapstructure:"steps"`
	AsyncTasks  string `mapstructure:"async_tasks"`
	Initializer string `mapstructure:"initializer"`
	ErrorHook   string `mapstructure:"error_hook"`
}

// loadOverride reads and validates the override file at the method
// boundary, if one exists. A missing file yields (nil, nil).
func loadOverride(fsys fs.FS, boundaryDir string, validate *validator.Validate) (*Override, error) {
	for _, ext := range overrideExts {
		name := path.Join(boundaryDir, overrideBase+"."+ext)
		f, err := fsys.Open(name)
		if err != nil {
			continue
		}

		v := viper.New()
		v.SetConfigType(ext)
		readErr := v.ReadConfig(f)
		_ = f.Close()
		if readErr != nil {
			return nil, fmt.Errorf("failed to parse override file %s: %w", name, readErr)
		}

		var ov Override
		if err := v.Unmarshal(&ov); err != nil {
			return nil, fmt.Errorf("failed to decode override file %s: %w", name, err)
		}
		ov.Method = strings.ToLower(ov.Method)

		if err := validate.Struct(&ov); err != nil {
			return nil, fmt.Errorf("invalid override file %s: %w", name, err)
		}
		return &ov, nil
	}
	return nil, nil
}
