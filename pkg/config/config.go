package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/user"
	"path"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

const (
	configDir  string = ".memwar"
	configFile string = "config.yml"

	// configDirEnv, when set, replaces ~/.memwar as the configuration
	// directory.
	configDirEnv = "MEMWAR_CONFIG_DIR"

	// DefaultChunkSize is the buffered write chunk used when the
	// configuration does not set one.
	DefaultChunkSize = 4096
	// DefaultDumpWidth is the number of bytes per hexdump row.
	DefaultDumpWidth = 16
)

// Chain describes a named multi-level pointer.
type Chain struct {
	// Module whose base address the chain is relative to. Empty means
	// Base is an absolute address.
	Module string `yaml:"module,omitempty"`
	// Base is the address of the first pointer, relative to Module.
	Base uint64 `yaml:"base"`
	// Offsets applied, in order, after each dereference. Negative
	// offsets step back from the pointer just read.
	Offsets []int64 `yaml:"offsets"`
	// Type used to print the value at the end of the chain.
	Type string `yaml:"type,omitempty"`
}

// Config defines all configuration options available to be set through the config file.
type Config struct {
	// Commands aliases.
	Aliases map[string][]string `yaml:"aliases"`

	// ChunkSize is the chunk size used by the load command.
	ChunkSize int `yaml:"chunk-size,omitempty"`

	// DumpWidth is the number of bytes shown on each line by dump.
	DumpWidth int `yaml:"dump-width,omitempty"`

	// DisasmSyntax is one of intel, gnu or go.
	DisasmSyntax string `yaml:"disasm-syntax,omitempty"`

	// Chains are the pointer chains usable by name with the chain command.
	Chains map[string]Chain `yaml:"chains"`
}

// GetChunkSize returns the configured chunk size or DefaultChunkSize.
func (c *Config) GetChunkSize() int {
	if c == nil || c.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return c.ChunkSize
}

// GetDumpWidth returns the configured dump width or DefaultDumpWidth.
func (c *Config) GetDumpWidth() int {
	if c == nil || c.DumpWidth <= 0 {
		return DefaultDumpWidth
	}
	return c.DumpWidth
}

// GetDisasmSyntax returns the configured disassembly flavour, defaulting to intel.
func (c *Config) GetDisasmSyntax() string {
	if c == nil {
		return "intel"
	}
	switch c.DisasmSyntax {
	case "gnu", "go":
		return c.DisasmSyntax
	default:
		return "intel"
	}
}

// LoadConfig attempts to populate a Config object from the config.yml file.
func LoadConfig() *Config {
	err := createConfigPath()
	if err != nil {
		fmt.Printf("Could not create config directory: %v.", err)
		return &Config{}
	}
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		fmt.Printf("Unable to get config file path: %v.", err)
		return &Config{}
	}

	if _, err := os.Stat(fullConfigFile); os.IsNotExist(err) {
		if err := createDefaultConfig(fullConfigFile); err != nil {
			fmt.Printf("Error creating default config file: %v", err)
			return &Config{}
		}
	}

	c, err := LoadConfigFrom(fullConfigFile)
	if err != nil {
		fmt.Printf("%v.", err)
		return &Config{}
	}
	return c
}

// LoadConfigFrom reads and decodes the configuration file at path.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config data: %v", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unable to decode config file: %v", err)
	}
	return &c, nil
}

// SaveConfig will marshal and save the config struct
// to disk.
func SaveConfig(conf *Config) error {
	if err := createConfigPath(); err != nil {
		return err
	}
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		return err
	}
	return SaveConfigTo(conf, fullConfigFile)
}

// SaveConfigTo writes conf to path.
func SaveConfigTo(conf *Config, path string) error {
	out, err := yaml.Marshal(*conf)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(out)
	return err
}

func createDefaultConfig(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create config file: %v", err)
	}
	defer f.Close()
	err = writeDefaultConfig(f)
	if err != nil {
		return fmt.Errorf("unable to write default configuration: %v", err)
	}
	return nil
}

func writeDefaultConfig(f *os.File) error {
	_, err := f.WriteString(
		`# Configuration file for memwar.

# This is the default configuration file. Available options are provided, but disabled.
# Delete the leading hash mark to enable an item.

# Provided aliases will be added to the default aliases for a given command.
aliases:
  # command: ["alias1", "alias2"]

# Chunk size used by the load command for buffered writes.
# chunk-size: 4096

# Number of bytes printed on each line by the dump command.
# dump-width: 16

# Disassembly syntax used by the disasm command: intel, gnu or go.
# disasm-syntax: intel

# Named pointer chains, usable as "chain <name>".
chains:
  # health:
  #   module: game.exe
  #   base: 0x10f4f4
  #   offsets: [0x374, 0x14, 0x0]
  #   type: i32
`)
	return err
}

// createConfigPath creates the directory structure at which all config files are saved.
func createConfigPath() error {
	path, err := GetConfigFilePath("")
	if err != nil {
		return err
	}
	return os.MkdirAll(path, 0700)
}

// GetConfigFilePath gets the full path to the given config file name.
func GetConfigFilePath(file string) (string, error) {
	if dir := os.Getenv(configDirEnv); dir != "" {
		return filepath.Join(dir, file), nil
	}
	userHomeDir := "."
	usr, err := user.Current()
	if err == nil {
		userHomeDir = usr.HomeDir
	}
	return path.Join(userHomeDir, configDir, file), nil
}
