package xmp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

const (
	// RDFNamespace is the namespace for RDF.
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	// xmlNamespace is the namespace bound to the reserved xml prefix.
	xmlNamespace = "http://www.w3.org/XML/1998/namespace"

	// metaNamespace is the namespace of the x:xmpmeta wrapper element.
	metaNamespace = "adobe:ns:meta/"
)

// Well-known property namespaces.
const (
	NSBasic     = "http://ns.adobe.com/xap/1.0/"
	NSMM        = "http://ns.adobe.com/xap/1.0/mm/"
	NSRights    = "http://ns.adobe.com/xap/1.0/rights/"
	NSDC        = "http://purl.org/dc/elements/1.1/"
	NSPhotoshop = "http://ns.adobe.com/photoshop/1.0/"
	NSTIFF      = "http://ns.adobe.com/tiff/1.0/"
	NSEXIF      = "http://ns.adobe.com/exif/1.0/"
	NSResEvent  = "http://ns.adobe.com/xap/1.0/sType/ResourceEvent#"
	NSResRef    = "http://ns.adobe.com/xap/1.0/sType/ResourceRef#"
)

var registry = struct {
	sync.RWMutex
	prefixes map[string]string // namespace -> prefix
}{
	prefixes: map[string]string{
		RDFNamespace: "rdf",
		xmlNamespace: "xml",
		NSBasic:      "xmp",
		NSMM:         "xmpMM",
		NSRights:     "xmpRights",
		NSDC:         "dc",
		NSPhotoshop:  "photoshop",
		NSTIFF:       "tiff",
		NSEXIF:       "exif",
		NSResEvent:   "stEvt",
		NSResRef:     "stRef",
		"http://ns.adobe.com/xmp/Identifier/qual/1.0/": "xmpidq",
	},
}

// RegisterNamespace binds a preferred prefix to a namespace URI for
// serialization. The table is process-wide.
func RegisterNamespace(uri, prefix string) error {
	if uri == "" {
		return errors.New("empty namespace uri")
	}
	if !isNCName(prefix) {
		return fmt.Errorf("invalid prefix %q", prefix)
	}
	if prefix == "x" || strings.EqualFold(prefix, "xmlns") {
		return fmt.Errorf("reserved prefix %q", prefix)
	}

	registry.Lock()
	defer registry.Unlock()

	for ns, p := range registry.prefixes {
		if p == prefix && ns != uri {
			return fmt.Errorf("prefix %q already bound to %s", prefix, ns)
		}
	}
	if p, ok := registry.prefixes[uri]; ok && (uri == RDFNamespace || uri == xmlNamespace) && p != prefix {
		return fmt.Errorf("namespace %s cannot be rebound", uri)
	}
	registry.prefixes[uri] = prefix
	return nil
}

// RegisteredPrefix returns the prefix registered for uri.
func RegisteredPrefix(uri string) (string, bool) {
	registry.RLock()
	defer registry.RUnlock()

	p, ok := registry.prefixes[uri]
	return p, ok
}

// derivePrefix chooses a new prefix for ns which is not in use yet.
func derivePrefix(used map[string]string, ns string) string {
	// Try the final element of the path, fall back to ns.
	prefix := strings.TrimRight(ns, "/#")
	if i := strings.LastIndexAny(prefix, "/#:"); i >= 0 {
		prefix = prefix[i+1:]
	}
	if !isNCName(prefix) {
		prefix = "ns"
	}
	if len(prefix) >= 3 && strings.EqualFold(prefix[:3], "xml") {
		prefix = "_" + prefix
	}
	if _, taken := used[prefix]; !taken && prefix != "x" {
		return prefix
	}
	for i := 1; ; i++ {
		id := prefix + strconv.Itoa(i)
		if _, taken := used[id]; !taken {
			return id
		}
	}
}

// isNCName reports whether s is a valid XML name without colons.
func isNCName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r) || r == '_':
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}
