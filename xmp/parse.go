package xmp

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	errNoRDF        = errors.New("rdf:RDF element not found")
	errMalformedXMP = errors.New("malformed XMP data")
)

var (
	elemRDFRoot        = xml.Name{Space: RDFNamespace, Local: "RDF"}
	elemRDFDescription = xml.Name{Space: RDFNamespace, Local: "Description"}
	elemRDFLi          = xml.Name{Space: RDFNamespace, Local: "li"}

	attrRDFAbout     = xml.Name{Space: RDFNamespace, Local: "about"}
	attrRDFResource  = xml.Name{Space: RDFNamespace, Local: "resource"}
	attrRDFParseType = xml.Name{Space: RDFNamespace, Local: "parseType"}
	attrXMLLang      = xml.Name{Space: xmlNamespace, Local: "lang"}
)

// node is an element of the parsed XML tree.
type node struct {
	name     xml.Name
	attr     []xml.Attr
	children []*node
	text     strings.Builder
}

func (n *node) attrValue(name xml.Name) (string, bool) {
	for _, a := range n.attr {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Parse decodes a serialized XMP packet.
func Parse(data []byte) (*Document, error) {
	return Read(bytes.NewReader(data))
}

// Read decodes an XMP packet from r.
func Read(r io.Reader) (*Document, error) {
	doc := NewDocument()

	root, err := buildTree(r, doc.prefixes)
	if err != nil {
		return nil, err
	}
	rdf := findElement(root, elemRDFRoot)
	if rdf == nil {
		return nil, errNoRDF
	}

	for _, desc := range rdf.children {
		if desc.name != elemRDFDescription {
			continue
		}
		if about, ok := desc.attrValue(attrRDFAbout); ok && about != "" {
			if doc.About != "" && doc.About != about {
				return nil, fmt.Errorf("inconsistent `about` attributes: %s != %s", doc.About, about)
			}
			doc.About = about
		}
		for _, a := range desc.attr {
			if !isPropertyAttr(a.Name) {
				continue
			}
			doc.Set(a.Name.Space, a.Name.Local, Text(a.Value))
		}
		for _, c := range desc.children {
			v, err := parseValue(c)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", c.name.Local, err)
			}
			doc.Set(c.name.Space, c.name.Local, v)
		}
	}

	return doc, nil
}

// buildTree reads all elements of r into a tree below a synthetic root.
// Namespace declarations are recorded in prefixes.
func buildTree(r io.Reader, prefixes map[string]string) (*node, error) {
	dec := xml.NewDecoder(r)
	root := &node{}
	stack := []*node{root}

	for {
		t, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := t.(type) {
		case xml.StartElement:
			n := &node{name: t.Name, attr: append([]xml.Attr(nil), t.Attr...)}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" && a.Value != "" {
					if _, seen := prefixes[a.Value]; !seen {
						prefixes[a.Value] = a.Name.Local
					}
				}
			}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 1 {
				return nil, errMalformedXMP
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			stack[len(stack)-1].text.Write(t)
		}
	}
	if len(stack) != 1 {
		return nil, errMalformedXMP
	}
	return root, nil
}

func findElement(n *node, name xml.Name) *node {
	if n.name == name {
		return n
	}
	for _, c := range n.children {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

// isPropertyAttr reports whether an attribute of a description or property
// element carries a property or struct field.
func isPropertyAttr(name xml.Name) bool {
	switch {
	case name.Space == "" || name.Space == "xmlns":
		return false
	case name.Space == RDFNamespace || name.Space == xmlNamespace:
		return false
	}
	return true
}

func parseValue(n *node) (Value, error) {
	lang, _ := n.attrValue(attrXMLLang)

	if res, ok := n.attrValue(attrRDFResource); ok {
		return Value{Kind: URI, Text: res}, nil
	}
	if pt, ok := n.attrValue(attrRDFParseType); ok {
		if pt != "Resource" {
			return Value{}, fmt.Errorf("%w: parseType %q", errMalformedXMP, pt)
		}
		return parseStruct(n)
	}

	switch len(n.children) {
	case 0:
		hasFields := false
		for _, a := range n.attr {
			if isPropertyAttr(a.Name) {
				hasFields = true
				break
			}
		}
		if hasFields && strings.TrimSpace(n.text.String()) == "" {
			return parseStruct(n)
		}
		return Value{Kind: Simple, Text: n.text.String(), Lang: lang}, nil
	case 1:
	default:
		return Value{}, errMalformedXMP
	}

	c := n.children[0]
	if c.name.Space != RDFNamespace {
		return Value{}, errMalformedXMP
	}
	switch c.name.Local {
	case "Bag", "Seq", "Alt":
		v := Value{Kind: arrayKinds[c.name.Local]}
		for _, li := range c.children {
			if li.name != elemRDFLi {
				return Value{}, fmt.Errorf("%w: unexpected %s in array", errMalformedXMP, li.name.Local)
			}
			item, err := parseValue(li)
			if err != nil {
				return Value{}, err
			}
			v.Items = append(v.Items, item)
		}
		return v, nil
	case "Description":
		return parseStruct(c)
	}
	return Value{}, errMalformedXMP
}

var arrayKinds = map[string]Kind{"Bag": Bag, "Seq": Seq, "Alt": Alt}

func parseStruct(n *node) (Value, error) {
	v := Value{Kind: Struct, Fields: make(map[Name]Value)}
	for _, a := range n.attr {
		if isPropertyAttr(a.Name) {
			v.Fields[Name{Space: a.Name.Space, Local: a.Name.Local}] = Text(a.Value)
		}
	}
	for _, c := range n.children {
		f, err := parseValue(c)
		if err != nil {
			return Value{}, err
		}
		v.Fields[Name{Space: c.name.Space, Local: c.name.Local}] = f
	}
	return v, nil
}
