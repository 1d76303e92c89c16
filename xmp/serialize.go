package xmp

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/maps"
)

const (
	packetHeader = "<?xpacket begin=\"\uFEFF\" id=\"W5M0MpCehiHzreSzNTczkc9d\"?>"
	packetFooter = "<?xpacket end=\"w\"?>"
	toolkit      = "vearutop/imaging"

	// paddingSize is the whitespace reserved for in-place edits in pretty output.
	paddingSize = 2048
)

// SerializeOptions controls packet layout.
type SerializeOptions struct {
	// Compact drops indentation and padding and writes unqualified simple
	// properties as attributes of rdf:Description.
	Compact bool
}

// Serialize encodes d as a complete XMP packet.
func Serialize(d *Document, compact bool) ([]byte, error) {
	return d.Encode(&SerializeOptions{Compact: compact})
}

// Encode encodes d as a complete XMP packet.
func (d *Document) Encode(opt *SerializeOptions) ([]byte, error) {
	if opt == nil {
		opt = &SerializeOptions{}
	}

	e, err := newEncoder(d, opt.Compact)
	if err != nil {
		return nil, err
	}

	e.buf.WriteString(packetHeader)
	e.newline(0)
	e.buf.WriteString(`<x:xmpmeta xmlns:x="` + metaNamespace + `" x:xmptk="` + toolkit + `">`)
	e.newline(1)
	e.buf.WriteString(`<rdf:RDF xmlns:rdf="` + RDFNamespace + `">`)
	e.newline(2)
	e.buf.WriteString(`<rdf:Description rdf:about="`)
	escape(&e.buf, d.About)
	e.buf.WriteString(`"`)
	for _, ns := range e.namespaces {
		if ns == RDFNamespace || ns == xmlNamespace {
			continue
		}
		e.buf.WriteString(` xmlns:` + e.prefix[ns] + `="`)
		escape(&e.buf, ns)
		e.buf.WriteString(`"`)
	}

	type prop struct {
		ns, key string
		v       Value
	}
	var elems []prop
	for _, ns := range d.Namespaces() {
		for _, key := range d.Keys(ns) {
			v := d.props[ns][key]
			if e.compact && v.Kind == Simple && v.Lang == "" {
				e.buf.WriteString(" " + e.qname(ns, key) + `="`)
				escape(&e.buf, v.Text)
				e.buf.WriteString(`"`)
				continue
			}
			elems = append(elems, prop{ns: ns, key: key, v: v})
		}
	}

	if len(elems) == 0 {
		e.buf.WriteString("/>")
	} else {
		e.buf.WriteString(">")
		for _, p := range elems {
			e.newline(3)
			if err := e.writeValue(e.qname(p.ns, p.key), p.v, 3); err != nil {
				return nil, fmt.Errorf("%s: %w", p.key, err)
			}
		}
		e.newline(2)
		e.buf.WriteString("</rdf:Description>")
	}
	e.newline(1)
	e.buf.WriteString("</rdf:RDF>")
	e.newline(0)
	e.buf.WriteString("</x:xmpmeta>")
	if !e.compact {
		e.buf.WriteString("\n")
		line := strings.Repeat(" ", 99) + "\n"
		for i := 0; i < paddingSize/len(line); i++ {
			e.buf.WriteString(line)
		}
	}
	e.buf.WriteString(packetFooter)

	return e.buf.Bytes(), nil
}

type encoder struct {
	buf        bytes.Buffer
	compact    bool
	prefix     map[string]string // namespace -> prefix
	namespaces []string
}

func newEncoder(d *Document, compact bool) (*encoder, error) {
	used := make(map[string]struct{})
	for ns, m := range d.props {
		if ns == "" {
			return nil, fmt.Errorf("property without namespace")
		}
		used[ns] = struct{}{}
		for key, v := range m {
			if !isNCName(key) {
				return nil, fmt.Errorf("invalid property name %q", key)
			}
			if err := collectNamespaces(v, used); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
		}
	}

	e := &encoder{
		compact: compact,
		prefix:  map[string]string{RDFNamespace: "rdf", xmlNamespace: "xml"},
	}
	taken := map[string]string{"rdf": RDFNamespace, "xml": xmlNamespace, "x": metaNamespace}

	namespaces := maps.Keys(used)
	sort.Strings(namespaces)

	// Prefixes found in the parsed packet first, then registered ones,
	// and finally derived ones.
	assign := func(pick func(ns string) (string, bool)) {
		for _, ns := range namespaces {
			if _, done := e.prefix[ns]; done {
				continue
			}
			p, ok := pick(ns)
			if !ok || !isNCName(p) {
				continue
			}
			if _, clash := taken[p]; clash {
				continue
			}
			e.prefix[ns] = p
			taken[p] = ns
		}
	}
	assign(func(ns string) (string, bool) { p, ok := d.prefixes[ns]; return p, ok })
	assign(RegisteredPrefix)
	assign(func(ns string) (string, bool) { return derivePrefix(taken, ns), true })

	e.namespaces = namespaces
	return e, nil
}

func collectNamespaces(v Value, used map[string]struct{}) error {
	for _, it := range v.Items {
		if err := collectNamespaces(it, used); err != nil {
			return err
		}
	}
	for n, f := range v.Fields {
		if n.Space == "" {
			return fmt.Errorf("struct field %q without namespace", n.Local)
		}
		if !isNCName(n.Local) {
			return fmt.Errorf("invalid struct field name %q", n.Local)
		}
		used[n.Space] = struct{}{}
		if err := collectNamespaces(f, used); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) qname(ns, local string) string {
	return e.prefix[ns] + ":" + local
}

func (e *encoder) newline(depth int) {
	if e.compact {
		return
	}
	e.buf.WriteByte('\n')
	e.buf.WriteString(strings.Repeat(" ", depth))
}

func (e *encoder) writeValue(name string, v Value, depth int) error {
	e.buf.WriteString("<" + name)
	if v.Lang != "" {
		e.buf.WriteString(` xml:lang="`)
		escape(&e.buf, v.Lang)
		e.buf.WriteString(`"`)
	}

	switch v.Kind {
	case Simple:
		e.buf.WriteString(">")
		escape(&e.buf, v.Text)
	case URI:
		e.buf.WriteString(` rdf:resource="`)
		escape(&e.buf, v.Text)
		e.buf.WriteString(`"/>`)
		return nil
	case Struct:
		if len(v.Fields) == 0 {
			e.buf.WriteString(` rdf:parseType="Resource"/>`)
			return nil
		}
		e.buf.WriteString(` rdf:parseType="Resource">`)
		for _, n := range sortedFieldNames(v.Fields) {
			e.newline(depth + 1)
			if err := e.writeValue(e.qname(n.Space, n.Local), v.Fields[n], depth+1); err != nil {
				return err
			}
		}
		e.newline(depth)
	case Bag, Seq, Alt:
		container := "rdf:" + map[Kind]string{Bag: "Bag", Seq: "Seq", Alt: "Alt"}[v.Kind]
		e.buf.WriteString(">")
		e.newline(depth + 1)
		if len(v.Items) == 0 {
			e.buf.WriteString("<" + container + "/>")
		} else {
			e.buf.WriteString("<" + container + ">")
			for _, it := range v.Items {
				e.newline(depth + 2)
				if err := e.writeValue("rdf:li", it, depth+2); err != nil {
					return err
				}
			}
			e.newline(depth + 1)
			e.buf.WriteString("</" + container + ">")
		}
		e.newline(depth)
	default:
		return fmt.Errorf("unknown value kind %d", v.Kind)
	}

	e.buf.WriteString("</" + name + ">")
	return nil
}

func escape(buf *bytes.Buffer, s string) {
	// EscapeText only fails when the writer does.
	_ = xml.EscapeText(buf, []byte(s))
}
