// dombindctl renders an interactive document offline: it loads an HTML
// file, applies store writes from a YAML script, runs the reactive engine,
// and prints the resulting document. Useful for debugging declaration
// attributes and for snapshotting what a document looks like in a given
// state.
package main

import (
	"fmt"
	"os"

	"github.com/docopt/docopt-go"
	"gopkg.in/yaml.v3"

	"github.com/pthm/dombind"
	"github.com/pthm/dombind/lib/dom"
	"github.com/pthm/dombind/lib/expr"
)

const version = "0.1.0"

const usage = `Render an interactive document offline.

Usage:
    dombindctl render --doc=<file> [--script=<file>] [--config=<dir>] [--key=<key>] [--out=<file>]

Options:
    -h --help          Show this screen.
    --version          Show version.
    --doc=<file>       HTML document to load.
    --script=<file>    YAML write script: namespaces to bulk-load and paths to set.
    --config=<dir>     Directory containing an optional dombind.yaml [default: .].
    --key=<key>        Key for signed/encrypted statepack data blocks.
    --out=<file>       Write the result here instead of stdout.
`

// writeScript is the YAML shape dombindctl applies to the store, in order:
// all namespaces first, then each write.
type writeScript struct {
	Namespaces map[string]map[string]any `yaml:"namespaces"`
	Writes     []struct {
		Path  string `yaml:"path"`
		Value any    `yaml:"value"`
	} `yaml:"writes"`
}

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if render, _ := opts.Bool("render"); render {
		if err := runRender(opts); err != nil {
			fmt.Fprintln(os.Stderr, "dombindctl:", err)
			os.Exit(1)
		}
		return
	}
	docopt.PrintHelpAndExit(nil, usage)
}

func runRender(opts docopt.Opts) error {
	docPath, _ := opts.String("--doc")
	f, err := os.Open(docPath)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return err
	}

	configDir, _ := opts.String("--config")
	loaded, err := dombind.LoadOptions(configDir)
	if err != nil {
		return err
	}

	engineOpts := []dombind.Option{dombind.WithOptions(loaded)}
	if key, _ := opts.String("--key"); key != "" {
		engineOpts = append(engineOpts, dombind.WithPayloadKey([]byte(key)))
	}

	store := dombind.NewStore()
	engine := dombind.NewEngine(store, expr.New(), engineOpts...)
	engine.Mount(doc)
	if err := engine.LoadDataBlocks(); err != nil {
		return err
	}

	var script writeScript
	if scriptPath, _ := opts.String("--script"); scriptPath != "" {
		data, err := os.ReadFile(scriptPath)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, &script); err != nil {
			return fmt.Errorf("parse script: %w", err)
		}
	}
	for ns, data := range script.Namespaces {
		store.SetNamespace(ns, data)
	}

	if err := engine.Enable(); err != nil {
		return err
	}
	for _, w := range script.Writes {
		store.Set(w.Path, w.Value)
	}

	out, err := doc.HTML()
	if err != nil {
		return err
	}

	if outPath, _ := opts.String("--out"); outPath != "" {
		return os.WriteFile(outPath, []byte(out), 0o644)
	}
	_, err = fmt.Println(out)
	return err
}
