package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultConfigDecodes(t *testing.T) {
	dir, err := ioutil.TempDir("", "memwar-config")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	p := filepath.Join(dir, configFile)
	if err := createDefaultConfig(p); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfigFrom(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.GetChunkSize() != DefaultChunkSize || c.GetDumpWidth() != DefaultDumpWidth || c.GetDisasmSyntax() != "intel" {
		t.Fatalf("unexpected defaults: %#v", c)
	}
	if len(c.Chains) != 0 {
		t.Fatalf("default config should not define chains: %v", c.Chains)
	}
}

func TestLoadChains(t *testing.T) {
	dir, err := ioutil.TempDir("", "memwar-config")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	p := filepath.Join(dir, configFile)
	data := `
chunk-size: 512
disasm-syntax: gnu
aliases:
  dump: ["x"]
chains:
  health:
    module: game.exe
    base: 0x10f4f4
    offsets: [0x374, 0x14, 0]
    type: i32
`
	if err := ioutil.WriteFile(p, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfigFrom(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.GetChunkSize() != 512 || c.GetDisasmSyntax() != "gnu" {
		t.Fatalf("wrong values: %#v", c)
	}
	want := Chain{Module: "game.exe", Base: 0x10f4f4, Offsets: []int64{0x374, 0x14, 0}, Type: "i32"}
	if got := c.Chains["health"]; !reflect.DeepEqual(got, want) {
		t.Fatalf("chain mismatch:\n%#v\n%#v", got, want)
	}
	if !reflect.DeepEqual(c.Aliases["dump"], []string{"x"}) {
		t.Fatalf("aliases: %v", c.Aliases)
	}

	c.ChunkSize = 1024
	if err := SaveConfigTo(c, p); err != nil {
		t.Fatal(err)
	}
	c2, err := LoadConfigFrom(p)
	if err != nil {
		t.Fatal(err)
	}
	if c2.GetChunkSize() != 1024 || !reflect.DeepEqual(c2.Chains, c.Chains) {
		t.Fatalf("saved config differs: %#v", c2)
	}
}

func TestNegativeChainOffsets(t *testing.T) {
	f, err := ioutil.TempFile("", "memwar-chains")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.WriteString(`
aliases:
  read: ["rd"]
chains:
  back:
    base: 0x1000
    offsets: [-0x8, 0x4]
`)
	f.Close()
	c, err := LoadConfigFrom(f.Name())
	if err != nil {
		t.Fatalf("negative offsets should decode: %v", err)
	}
	if got := c.Chains["back"].Offsets; !reflect.DeepEqual(got, []int64{-8, 4}) {
		t.Fatalf("offsets: %v", got)
	}
	if !reflect.DeepEqual(c.Aliases["read"], []string{"rd"}) {
		t.Fatalf("aliases were dropped: %v", c.Aliases)
	}
}

func TestLoadConfigFromErrors(t *testing.T) {
	if _, err := LoadConfigFrom(filepath.Join(os.TempDir(), "memwar-does-not-exist.yml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
	f, err := ioutil.TempFile("", "memwar-bad")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.WriteString("chunk-size: [not a number\n")
	f.Close()
	if _, err := LoadConfigFrom(f.Name()); err == nil {
		t.Fatal("expected a decoding error")
	}
}

func TestNilConfigDefaults(t *testing.T) {
	var c *Config
	if c.GetChunkSize() != DefaultChunkSize || c.GetDumpWidth() != DefaultDumpWidth || c.GetDisasmSyntax() != "intel" {
		t.Fatal("nil config should return defaults")
	}
}

func TestSaveConfigHonoursConfigDir(t *testing.T) {
	dir, err := ioutil.TempDir("", "memwar-config")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	t.Setenv(configDirEnv, filepath.Join(dir, "nested"))

	conf := &Config{DumpWidth: 8, Chains: map[string]Chain{"hp": {Base: 0x10, Offsets: []int64{-4}}}}
	if err := SaveConfig(conf); err != nil {
		t.Fatal(err)
	}
	p, _ := GetConfigFilePath(configFile)
	if p != filepath.Join(dir, "nested", configFile) {
		t.Fatalf("config path %q is outside %s", p, dir)
	}
	c, err := LoadConfigFrom(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.GetDumpWidth() != 8 || !reflect.DeepEqual(c.Chains, conf.Chains) {
		t.Fatalf("saved config differs: %#v", c)
	}
}
