package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"github.com/simsapa/simsapa-sub001/app/common"
)

const ConfigFileName = "config.toml"

type ServerConfig struct {
	Address string `toml:"address"`
	Port    int    `toml:"port"`
	// Requests per second per client, 0 disables the limiter.
	RateLimit float64 `toml:"rate_limit"`
}

type SimsapaConfig struct {
	DataDir string `toml:"-"`

	// Database file names, relative to DataDir unless absolute.
	AppDataDb  string `toml:"appdata_db"`
	UserDataDb string `toml:"userdata_db"`
	DpdDb      string `toml:"dpd_db"`

	IndexDir string `toml:"index_dir"`

	PageLen       int `toml:"page_len"`
	SnippetLen    int `toml:"snippet_len"`
	FuzzyDistance int `toml:"fuzzy_distance"`
	WorkerCount   int `toml:"worker_count"`

	DefaultUiLanguage       string   `toml:"default_ui_language"`
	MandatorySuttaLanguages []string `toml:"mandatory_sutta_languages"`

	Server ServerConfig `toml:"server"`
}

func DefaultConfig(dataDir string) SimsapaConfig {
	return SimsapaConfig{
		DataDir:                 dataDir,
		AppDataDb:               "appdata.sqlite3",
		UserDataDb:              "userdata.sqlite3",
		DpdDb:                   "dpd.sqlite3",
		IndexDir:                "index",
		PageLen:                 20,
		SnippetLen:              200,
		FuzzyDistance:           0,
		WorkerCount:             runtime.NumCPU(),
		DefaultUiLanguage:       common.LangEnglish,
		MandatorySuttaLanguages: []string{common.LangEnglish, common.LangPali},
		Server: ServerConfig{
			Address: "127.0.0.1",
			Port:    4848,
		},
	}
}

// Load reads <dataDir>/config.toml on top of the defaults. A missing file is
// not an error.
func Load(dataDir string) (SimsapaConfig, error) {
	conf := DefaultConfig(dataDir)

	data, err := os.ReadFile(filepath.Join(dataDir, ConfigFileName))
	if errors.Is(err, os.ErrNotExist) {
		return conf, nil
	}
	if err != nil {
		return conf, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &conf); err != nil {
		return conf, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
	}
	conf.DataDir = dataDir

	if err := conf.Validate(); err != nil {
		return conf, err
	}
	return conf, nil
}

// Save writes the config to <DataDir>/config.toml.
func (c *SimsapaConfig) Save() error {
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.DataDir, ConfigFileName), data, 0o644)
}

func (c *SimsapaConfig) Validate() error {
	switch {
	case c.PageLen <= 0:
		return common.NewUserVisibleError(400, fmt.Sprintf("page_len must be positive, got %d", c.PageLen))
	case c.SnippetLen <= 0:
		return common.NewUserVisibleError(400, fmt.Sprintf("snippet_len must be positive, got %d", c.SnippetLen))
	case c.FuzzyDistance < 0 || c.FuzzyDistance > 2:
		return common.NewUserVisibleError(400, fmt.Sprintf("fuzzy_distance must be between 0 and 2, got %d", c.FuzzyDistance))
	case c.WorkerCount <= 0:
		return common.NewUserVisibleError(400, fmt.Sprintf("worker_count must be positive, got %d", c.WorkerCount))
	case c.AppDataDb == "":
		return common.NewUserVisibleError(400, "appdata_db must be set")
	}
	return nil
}

func (c *SimsapaConfig) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func (c *SimsapaConfig) AppDataPath() string  { return c.resolve(c.AppDataDb) }
func (c *SimsapaConfig) UserDataPath() string { return c.resolve(c.UserDataDb) }
func (c *SimsapaConfig) DpdPath() string      { return c.resolve(c.DpdDb) }
func (c *SimsapaConfig) IndexPath() string    { return c.resolve(c.IndexDir) }
