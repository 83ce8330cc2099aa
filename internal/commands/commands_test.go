package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmagro/aave-positions/internal/config"
	"github.com/dmagro/aave-positions/internal/logging"
)

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("RPC_URL", "")
	dir := t.TempDir()

	o := &Options{
		ConfigPath:    filepath.Join(dir, "missing.yaml"),
		AddressesFile: filepath.Join(dir, "wallets.json"),
		Interval:      0,
		IntervalSet:   true,
	}
	cfg, err := loadConfig(o)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.AddressesFile != o.AddressesFile {
		t.Errorf("AddressesFile = %q, want %q", cfg.AddressesFile, o.AddressesFile)
	}
	if cfg.Pacing.Interval != 0 {
		t.Errorf("Pacing.Interval = %s, want 0", cfg.Pacing.Interval)
	}

	o.IntervalSet = false
	cfg, err = loadConfig(o)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Pacing.Interval != time.Second {
		t.Errorf("Pacing.Interval = %s, want default 1s", cfg.Pacing.Interval)
	}

	o.Interval, o.IntervalSet = -time.Second, true
	if _, err := loadConfig(o); err == nil {
		t.Error("negative interval accepted")
	}
}

func TestRequiredContracts(t *testing.T) {
	got := requiredContracts(config.Default())
	if len(got) != 3 {
		t.Fatalf("got %d contracts, want 3", len(got))
	}
	if !strings.EqualFold(got[0].Address.Hex(), config.DefaultUIPoolDataProvider) {
		t.Errorf("first contract = %s, want the UI pool data provider", got[0].Address.Hex())
	}
}

func TestListAddressesCreatesDefaults(t *testing.T) {
	t.Setenv("RPC_URL", "")
	dir := t.TempDir()
	var out bytes.Buffer

	o := &Options{
		ConfigPath:    filepath.Join(dir, "missing.yaml"),
		AddressesFile: filepath.Join(dir, "addresses.json"),
		NoColor:       true,
		Stdout:        &out,
		Logger:        logging.Discard(),
	}
	if err := ListAddresses(o); err != nil {
		t.Fatalf("ListAddresses() error = %v", err)
	}
	if _, err := os.Stat(o.AddressesFile); err != nil {
		t.Errorf("address file not created: %v", err)
	}
	if !strings.Contains(out.String(), "0xe8Bf6904a1799cDf793aFDD223F3Eed0C4B98CE3") || !strings.Contains(out.String(), "4 addresses") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}
