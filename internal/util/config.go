package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	DefaultRootPath = "."
	ConfigFileName  = "itmoscript.toml"
	HomeEnv         = "ITMOSCRIPT_HOME"
)

// DatabaseConfig is a named connection that scripts can open with db_open.
type DatabaseConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type Configuration struct {
	Version      string `toml:"-"`
	BuildDate    string `toml:"-"`
	Commit       string `toml:"-"`
	Home         string `toml:"-"`
	RootPath     string `toml:"root"`
	DebugJsonAST bool   `toml:"debug_ast"`
	DebugTxtAST  bool   `toml:"debug_ast_text"`
	LogLevel     string `toml:"log_level"`
	LogFile      string `toml:"log_file"`
	HistoryFile  string `toml:"history_file"`

	Databases map[string]DatabaseConfig `toml:"databases"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		RootPath:  DefaultRootPath,
		LogLevel:  "none",
		Home:      os.Getenv(HomeEnv),
		Databases: map[string]DatabaseConfig{},
	}
}

// ConfigPath picks the configuration file to load. An explicit path always
// wins; otherwise itmoscript.toml under home is used when it exists.
func ConfigPath(explicit, home string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}
	if home == "" {
		return "", false
	}
	path := filepath.Join(home, ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// LoadFile overlays the values found in a TOML file onto c. Keys missing from
// the file keep their current values.
func (c *Configuration) LoadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s not found", path)
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("reading config %s: unknown key %s", path, undecoded[0])
	}
	if c.RootPath == "" {
		c.RootPath = DefaultRootPath
	}
	return nil
}

// Database looks up a named connection.
func (c *Configuration) Database(name string) (DatabaseConfig, bool) {
	db, ok := c.Databases[name]
	return db, ok
}
