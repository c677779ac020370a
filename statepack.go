package dombind

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pthm/dombind/lib/dom"
	"github.com/pthm/dombind/lib/statepack"
	"gopkg.in/yaml.v3"
)

// Codec is an alias for statepack.Codec for convenience.
type Codec = statepack.Codec

// NewCodec creates a state payload codec with the given key.
func NewCodec(key []byte) (*Codec, error) {
	return statepack.NewCodec(key)
}

// Data block media types recognized by LoadDataBlocks.
const (
	DataBlockJSON      = "application/json"
	DataBlockYAML      = "application/yaml"
	DataBlockStatepack = "application/x-statepack"
)

// LoadDataBlocks performs the bulk initialization pass: it scans the
// mounted document for inert script blocks carrying a state-namespace
// attribute, decodes each payload, and hands it to Store.SetNamespace.
//
//	<script type="application/json" data-state="app">{"user": {...}}</script>
//	<script type="application/yaml" data-state="cfg">theme: dark</script>
//	<script type="application/x-statepack">s1.xxxx.yyyy</script>
//
// JSON and YAML blocks name their namespace in the state attribute;
// statepack blocks carry it inside the signed payload (and need the engine
// constructed with WithPayloadKey). Blocks that fail to decode are warned
// about and skipped; a bad block never aborts the others.
//
// Call after Mount and typically before Enable, so the initial evaluation
// pass sees loaded state. Loading after Enable also works: SetNamespace
// notifies every subscriber under the namespace.
func (e *Engine) LoadDataBlocks() error {
	if e.doc == nil {
		return ErrNotMounted
	}

	var codec *statepack.Codec
	for _, script := range dom.Select(e.doc.Root, "script") {
		blockType := dom.AttrValue(script, "type")
		payload := strings.TrimSpace(dom.Text(script))
		if payload == "" {
			continue
		}

		switch blockType {
		case DataBlockJSON, DataBlockYAML:
			ns := dom.AttrValue(script, e.attrs.state)
			if ns == "" {
				continue
			}
			data, err := decodeDataBlock(blockType, payload)
			if err != nil {
				e.warn("dombind: data block for namespace %q skipped: %v", ns, err)
				continue
			}
			e.store.SetNamespace(ns, data)

		case DataBlockStatepack:
			if len(e.payloadKey) == 0 {
				e.warn("dombind: statepack data block skipped: no payload key configured")
				continue
			}
			if codec == nil {
				var err error
				codec, err = statepack.NewCodec(e.payloadKey)
				if err != nil {
					return fmt.Errorf("dombind: payload codec: %w", err)
				}
			}
			p, err := codec.Decode(payload)
			if err != nil {
				e.warn("dombind: statepack data block skipped: %v", wrapPayloadError(err))
				continue
			}
			e.store.SetNamespace(p.Namespace, p.Data)
		}
	}
	return nil
}

func decodeDataBlock(blockType, payload string) (map[string]any, error) {
	var data map[string]any
	switch blockType {
	case DataBlockJSON:
		if err := json.Unmarshal([]byte(payload), &data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPayloadFormat, err)
		}
	case DataBlockYAML:
		if err := yaml.Unmarshal([]byte(payload), &data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPayloadFormat, err)
		}
	}
	return normalizeTree(data), nil
}

// normalizeTree rewrites decoded trees into the store's canonical shapes:
// map[string]any nodes and float64 numbers, matching what expression
// evaluation and JSON substitution expect.
func normalizeTree(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeTree(t)
	case map[any]any: // yaml.v3 produces this for some nestings
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalizeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}
