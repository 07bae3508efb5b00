package app

import (
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
)

// SettingsFile is the optional settings file read from the working
// directory and from the task file's directory.
const SettingsFile = "assetgrid.toml"

// Settings are the process defaults. Command-line flags override them.
type Settings struct {
	File    string `default:"assetgrid.hcl" usage:"Task file, or a directory of .hcl files"`
	Workers int    `default:"4" usage:"Maximum number of tasks running at the same time"`
	Log     struct {
		Level  string `default:"info" usage:"debug, info, warn or error"`
		Format string `default:"text" usage:"text or json"`
	}
	Server struct {
		Port int    `usage:"Dev server port, overrides the task file"`
		Open string `usage:"local, external or none, overrides the task file"`
	}
	Watch struct {
		Debounce time.Duration `usage:"Watch batching window, overrides the task file"`
	}
}

// LoadSettings reads defaults, the settings file and ASSETGRID_* environment
// variables, in increasing priority. taskFile is the task file named on the
// command line, if any; a settings file next to it wins over one in the
// working directory.
func LoadSettings(taskFile string) (*Settings, error) {
	files := []string{SettingsFile}
	if taskFile != "" {
		dir := taskFile
		if filepath.Ext(taskFile) == ".hcl" {
			dir = filepath.Dir(taskFile)
		}
		if near := filepath.Join(dir, SettingsFile); near != SettingsFile {
			files = append([]string{near}, files...)
		}
	}

	var s Settings
	loader := aconfig.LoaderFor(&s, aconfig.Config{
		SkipFlags: true,
		EnvPrefix: "ASSETGRID",
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, eris.Wrap(err, "loading settings")
	}
	return &s, nil
}

// Config converts the settings into an application configuration.
func (s *Settings) Config() Config {
	return Config{
		File:      s.File,
		Workers:   s.Workers,
		LogLevel:  s.Log.Level,
		LogFormat: s.Log.Format,
		Port:      s.Server.Port,
		Open:      s.Server.Open,
		Debounce:  s.Watch.Debounce,
	}
}
