// Package format renders a locale's translation tree into the three wire
// shapes the delivery endpoint serves: a JS bootstrap snippet, plain JSON and
// YAML. Renderers read from the live store on every call, so a renderer bound
// to a locale never goes stale on its own.
package format

import (
	"encoding/json"
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"
)

// Source provides the translation content a renderer serializes.
type Source interface {
	Translations(locale string) map[string]any
	DefaultLocale() string
}

// Options carries the per-request rendering knobs passed through from the
// delivery endpoint's query string.
type Options struct {
	Namespace string
	Diff      bool
	Preload   bool
}

// Renderer produces the payload for one locale in one wire shape.
type Renderer func(opts Options) ([]byte, error)

// JSON renders the locale's tree as a JSON document.
func JSON(src Source, locale string) Renderer {
	return func(opts Options) ([]byte, error) {
		return json.Marshal(payload(src, locale, opts))
	}
}

// YML renders the locale's tree as a YAML document.
func YML(src Source, locale string) Renderer {
	return func(opts Options) ([]byte, error) {
		return yaml.Marshal(payload(src, locale, opts))
	}
}

// JS renders the locale's tree as a self-registering browser snippet.
func JS(src Source, locale string) Renderer {
	jsonRenderer := JSON(src, locale)
	return func(opts Options) ([]byte, error) {
		body, err := jsonRenderer(opts)
		if err != nil {
			return nil, err
		}

		snippet := fmt.Sprintf(
			"(function (w) {\nw.__uniI18nTranslations__ = w.__uniI18nTranslations__ || {};\nw.__uniI18nTranslations__[%q] = %s;\n})(this || window);\n",
			locale, body)
		return []byte(snippet), nil
	}
}

// payload assembles the tree a renderer serializes, applying namespace
// selection, the default-locale preload and the diff reduction.
func payload(src Source, locale string, opts Options) map[string]any {
	tree := src.Translations(locale)
	if tree == nil {
		tree = map[string]any{}
	}

	if opts.Preload && locale != src.DefaultLocale() {
		base := src.Translations(src.DefaultLocale())
		if base != nil {
			merged := make(map[string]any, len(base))
			overlay(merged, base)
			overlay(merged, tree)
			tree = merged
		}
	}

	if opts.Diff && locale != src.DefaultLocale() {
		base := src.Translations(src.DefaultLocale())
		if base != nil {
			tree = diffTrees(tree, base)
		}
	}

	if opts.Namespace != "" {
		tree = selectNamespace(tree, opts.Namespace)
	}

	return tree
}

func overlay(dst, src map[string]any) {
	for key, value := range src {
		srcChild, srcIsTree := value.(map[string]any)
		if !srcIsTree {
			dst[key] = value
			continue
		}

		dstChild, dstIsTree := dst[key].(map[string]any)
		if !dstIsTree {
			dstChild = make(map[string]any, len(srcChild))
			dst[key] = dstChild
		}
		overlay(dstChild, srcChild)
	}
}

// diffTrees keeps only the entries of tree whose value differs from base.
func diffTrees(tree, base map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range tree {
		baseValue, inBase := base[key]
		if !inBase {
			out[key] = value
			continue
		}

		child, childIsTree := value.(map[string]any)
		baseChild, baseIsTree := baseValue.(map[string]any)
		if childIsTree && baseIsTree {
			if reduced := diffTrees(child, baseChild); len(reduced) > 0 {
				out[key] = reduced
			}
			continue
		}

		if !reflect.DeepEqual(value, baseValue) {
			out[key] = value
		}
	}
	return out
}

func selectNamespace(tree map[string]any, namespace string) map[string]any {
	child, ok := tree[namespace].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return child
}
