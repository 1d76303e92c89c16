package xmp

import (
	"sort"

	"golang.org/x/exp/maps"
	"golang.org/x/text/language"
)

const xDefault = "x-default"

// Document is an XMP property tree: namespace -> property name -> value.
//
// A Document is not safe for concurrent mutation.
type Document struct {
	// About is the rdf:about attribute of the packet, usually empty.
	About string

	props    map[string]map[string]Value
	prefixes map[string]string // namespace -> prefix seen while parsing
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		props:    make(map[string]map[string]Value),
		prefixes: make(map[string]string),
	}
}

// Set stores v under namespace ns and name key.
func (d *Document) Set(ns, key string, v Value) {
	m, ok := d.props[ns]
	if !ok {
		m = make(map[string]Value)
		d.props[ns] = m
	}
	m[key] = v
}

// SetText stores a simple text value.
func (d *Document) SetText(ns, key, text string) {
	d.Set(ns, key, Text(text))
}

// Get returns the value stored under ns and key.
func (d *Document) Get(ns, key string) (Value, bool) {
	v, ok := d.props[ns][key]
	return v, ok
}

// GetText returns the text of a simple or URI value.
func (d *Document) GetText(ns, key string) (string, bool) {
	v, ok := d.Get(ns, key)
	if !ok || (v.Kind != Simple && v.Kind != URI) {
		return "", false
	}
	return v.Text, true
}

// Delete removes a property. Empty namespaces are dropped.
func (d *Document) Delete(ns, key string) {
	m, ok := d.props[ns]
	if !ok {
		return
	}
	delete(m, key)
	if len(m) == 0 {
		delete(d.props, ns)
	}
}

// Namespaces returns the namespaces which hold at least one property, sorted.
func (d *Document) Namespaces() []string {
	ns := maps.Keys(d.props)
	sort.Strings(ns)
	return ns
}

// Keys returns the property names of ns, sorted.
func (d *Document) Keys(ns string) []string {
	keys := maps.Keys(d.props[ns])
	sort.Strings(keys)
	return keys
}

// Len returns the number of properties.
func (d *Document) Len() int {
	n := 0
	for _, m := range d.props {
		n += len(m)
	}
	return n
}

// IsEmpty reports whether the document has no properties.
func (d *Document) IsEmpty() bool {
	return d.Len() == 0
}

// Properties returns a deep copy of the property tree.
func (d *Document) Properties() map[string]map[string]Value {
	out := make(map[string]map[string]Value, len(d.props))
	for ns, m := range d.props {
		cm := make(map[string]Value, len(m))
		for k, v := range m {
			cm[k] = v.Clone()
		}
		out[ns] = cm
	}
	return out
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	c := &Document{
		About:    d.About,
		props:    d.Properties(),
		prefixes: make(map[string]string, len(d.prefixes)),
	}
	for ns, p := range d.prefixes {
		c.prefixes[ns] = p
	}
	return c
}

// LocalizedText picks the best matching item of a language alternative.
// Without a good match the x-default item, then the first item, is returned.
func (d *Document) LocalizedText(ns, key string, prefs ...language.Tag) (string, bool) {
	v, ok := d.Get(ns, key)
	if !ok {
		return "", false
	}
	if v.Kind == Simple {
		return v.Text, true
	}
	if v.Kind != Alt || len(v.Items) == 0 {
		return "", false
	}

	fallback := 0
	tags := make([]language.Tag, len(v.Items))
	for i, it := range v.Items {
		if it.Lang == xDefault || it.Lang == "" {
			tags[i] = language.Und
			if it.Lang == xDefault {
				fallback = i
			}
			continue
		}
		tags[i] = language.Make(it.Lang)
	}
	if len(prefs) > 0 {
		_, idx, conf := language.NewMatcher(tags).Match(prefs...)
		if conf != language.No && idx < len(v.Items) {
			return v.Items[idx].Text, true
		}
	}
	return v.Items[fallback].Text, true
}

// SetLocalizedText adds or replaces the item for lang in a language alternative.
// An empty lang is stored as x-default.
func (d *Document) SetLocalizedText(ns, key, lang, text string) {
	if lang == "" || lang == xDefault {
		lang = xDefault
	} else {
		lang = language.Make(lang).String()
	}

	v, ok := d.Get(ns, key)
	if !ok || v.Kind != Alt {
		v = Array(Alt)
	} else {
		v = v.Clone()
	}
	for i := range v.Items {
		if v.Items[i].Lang == lang {
			v.Items[i].Text = text
			d.Set(ns, key, v)
			return
		}
	}
	item := LangText(lang, text)
	if lang == xDefault {
		v.Items = append([]Value{item}, v.Items...)
	} else {
		v.Items = append(v.Items, item)
	}
	d.Set(ns, key, v)
}
