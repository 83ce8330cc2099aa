package addresses

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dmagro/aave-positions/internal/logging"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")

	got := Load(path, logging.Discard())
	if !reflect.DeepEqual(got, DefaultAddresses()) {
		t.Fatalf("Load() = %v, want defaults", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default file not written: %v", err)
	}
	var persisted []string
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("default file is not a JSON array: %v", err)
	}
	if !reflect.DeepEqual(persisted, DefaultAddresses()) {
		t.Errorf("persisted = %v, want defaults", persisted)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"ordered list", `["0xB", "0xA", "not-an-address"]`, []string{"0xB", "0xA", "not-an-address"}},
		{"empty array", `[]`, []string{}},
		{"null", `null`, []string{}},
		{"malformed", `["0xA",`, []string{}},
		{"wrong shape", `{"addresses": ["0xA"]}`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "addresses.json")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			got := Load(path, logging.Discard())
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Load() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDefaultAddressesIsCopy(t *testing.T) {
	a := DefaultAddresses()
	a[0] = "mutated"
	if DefaultAddresses()[0] == "mutated" {
		t.Error("DefaultAddresses exposes the package slice")
	}
}
