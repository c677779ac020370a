package dombind

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	content := "attribute_prefix: x-\nloop_cap: 50\nhide: attribute\n"
	if err := os.WriteFile(filepath.Join(dir, "dombind.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := LoadOptions(dir)
	if err != nil {
		t.Fatal(err)
	}
	if opts.AttributePrefix != "x-" {
		t.Errorf("AttributePrefix = %q", opts.AttributePrefix)
	}
	if opts.LoopCap != 50 {
		t.Errorf("LoopCap = %d", opts.LoopCap)
	}
	if opts.Hide != HideAttribute {
		t.Errorf("Hide = %q", opts.Hide)
	}
}

func TestLoadOptionsMissingFile(t *testing.T) {
	opts, err := LoadOptions(t.TempDir())
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if opts.AttributePrefix != "" || opts.LoopCap != 0 || opts.Hide != "" {
		t.Errorf("missing file returned non-zero options: %+v", opts)
	}
}

func TestLoadOptionsBadYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "dombind.yaml"), []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOptions(dir); err == nil {
		t.Error("malformed dombind.yaml did not error")
	}
}

func TestWithOptionsSkipsZeroFields(t *testing.T) {
	view, err := NewTestView(`<p id="x" data-if="state.ok">x</p>`, WithOptions(&Options{}))
	if err != nil {
		t.Fatal(err)
	}
	// zero options leave the defaults intact: data- prefix still binds
	if view.IsVisible("#x") {
		t.Error("default-prefixed declaration not bound under zero options")
	}

	view2, err := NewTestView(`<p id="x" x-if="state.ok">x</p>`,
		WithOptions(&Options{AttributePrefix: "x-", Hide: HideAttribute}))
	if err != nil {
		t.Fatal(err)
	}
	if view2.IsVisible("#x") {
		t.Error("options-configured prefix not applied")
	}
}
