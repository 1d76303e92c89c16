package xmp

import (
	"sort"

	"golang.org/x/exp/maps"
)

// Name identifies a property or a struct field by namespace URI and local name.
type Name struct {
	Space string
	Local string
}

// Kind is the shape of an XMP value.
type Kind int

// Value kinds of the XMP data model.
const (
	Simple Kind = iota
	URI
	Struct
	Bag
	Seq
	Alt
)

func (k Kind) String() string {
	switch k {
	case Simple:
		return "simple"
	case URI:
		return "uri"
	case Struct:
		return "struct"
	case Bag:
		return "bag"
	case Seq:
		return "seq"
	case Alt:
		return "alt"
	default:
		return "unknown"
	}
}

// IsArray reports whether values of this kind hold items.
func (k Kind) IsArray() bool {
	return k == Bag || k == Seq || k == Alt
}

// Value is a node of the XMP property tree.
type Value struct {
	Kind Kind
	// Text holds the value of Simple and URI kinds.
	Text string
	// Lang is the xml:lang qualifier, empty if absent.
	Lang string
	// Items holds array members in document order.
	Items []Value
	// Fields holds struct members.
	Fields map[Name]Value
}

// Text returns a simple text value.
func Text(s string) Value {
	return Value{Kind: Simple, Text: s}
}

// LangText returns a simple text value qualified with xml:lang.
func LangText(lang, s string) Value {
	return Value{Kind: Simple, Text: s, Lang: lang}
}

// Resource returns a URI value.
func Resource(uri string) Value {
	return Value{Kind: URI, Text: uri}
}

// Array returns an array value of the given kind.
func Array(kind Kind, items ...Value) Value {
	if !kind.IsArray() {
		kind = Seq
	}
	return Value{Kind: kind, Items: items}
}

// NewStruct returns a struct value holding a copy of fields.
func NewStruct(fields map[Name]Value) Value {
	v := Value{Kind: Struct, Fields: make(map[Name]Value, len(fields))}
	for n, f := range fields {
		v.Fields[n] = f.Clone()
	}
	return v
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	c := Value{Kind: v.Kind, Text: v.Text, Lang: v.Lang}
	if v.Items != nil {
		c.Items = make([]Value, len(v.Items))
		for i, it := range v.Items {
			c.Items[i] = it.Clone()
		}
	}
	if v.Fields != nil {
		c.Fields = make(map[Name]Value, len(v.Fields))
		for n, f := range v.Fields {
			c.Fields[n] = f.Clone()
		}
	}
	return c
}

// sortedFieldNames returns struct field names ordered by namespace, then local name.
func sortedFieldNames(fields map[Name]Value) []Name {
	names := maps.Keys(fields)
	sort.Slice(names, func(i, j int) bool {
		if names[i].Space != names[j].Space {
			return names[i].Space < names[j].Space
		}
		return names[i].Local < names[j].Local
	})
	return names
}
