package main

import (
	"path/filepath"
	"testing"

	"rat24f/pkg/config"
)

func TestResolveConfigPath(t *testing.T) {
	if got := resolveConfigPath("custom.toml", "dir/prog.rat"); got != "custom.toml" {
		t.Errorf("explicit path ignored: %q", got)
	}

	got := resolveConfigPath("", "", filepath.Join("listings", "prog_output.txt"))
	if !filepath.IsAbs(got) || filepath.Base(got) != config.FileName || filepath.Base(filepath.Dir(got)) != "listings" {
		t.Errorf("resolveConfigPath = %q, want rat24f.toml beside the listing", got)
	}

	if got := resolveConfigPath(""); got != config.FileName {
		t.Errorf("resolveConfigPath() = %q, want %q", got, config.FileName)
	}
}
