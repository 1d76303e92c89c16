package xmp

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/text/language"
)

const samplePacket = `<?xpacket begin="` + "\uFEFF" + `" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about=""
    xmlns:xmp="http://ns.adobe.com/xap/1.0/"
    xmlns:dc="http://purl.org/dc/elements/1.1/"
    xmlns:xmpMM="http://ns.adobe.com/xap/1.0/mm/"
    xmlns:stRef="http://ns.adobe.com/xap/1.0/sType/ResourceRef#"
    xmp:CreatorTool="Test Tool 1.0">
   <dc:title>
    <rdf:Alt>
     <rdf:li xml:lang="x-default">Lake</rdf:li>
     <rdf:li xml:lang="de">See</rdf:li>
    </rdf:Alt>
   </dc:title>
   <dc:subject>
    <rdf:Bag>
     <rdf:li>water</rdf:li>
     <rdf:li>mountain</rdf:li>
    </rdf:Bag>
   </dc:subject>
   <xmpMM:DerivedFrom rdf:parseType="Resource">
    <stRef:documentID>doc-1</stRef:documentID>
    <stRef:instanceID>inst-1</stRef:instanceID>
   </xmpMM:DerivedFrom>
   <xmp:BaseURL rdf:resource="http://example.com/"/>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(samplePacket))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got, _ := doc.GetText(NSBasic, "CreatorTool"); got != "Test Tool 1.0" {
		t.Fatalf("CreatorTool = %q", got)
	}
	if got, _ := doc.GetText(NSBasic, "BaseURL"); got != "http://example.com/" {
		t.Fatalf("BaseURL = %q", got)
	}

	subject, ok := doc.Get(NSDC, "subject")
	if !ok {
		t.Fatalf("dc:subject missing")
	}
	want := Array(Bag, Text("water"), Text("mountain"))
	if diff := cmp.Diff(want, subject, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("dc:subject mismatch (-want +got):\n%s", diff)
	}

	derived, ok := doc.Get(NSMM, "DerivedFrom")
	if !ok || derived.Kind != Struct {
		t.Fatalf("xmpMM:DerivedFrom = %+v", derived)
	}
	if got := derived.Fields[Name{Space: NSResRef, Local: "documentID"}].Text; got != "doc-1" {
		t.Fatalf("documentID = %q", got)
	}
	if doc.Len() != 5 {
		t.Fatalf("Len = %d, want 5", doc.Len())
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(samplePacket))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	for _, compact := range []bool{true, false} {
		data, err := Serialize(doc, compact)
		if err != nil {
			t.Fatalf("serialize (compact=%v): %v", compact, err)
		}
		if !strings.HasPrefix(string(data), "<?xpacket begin") {
			t.Fatalf("packet must start with xpacket header: %q", data[:20])
		}
		if !strings.HasSuffix(string(data), `<?xpacket end="w"?>`) {
			t.Fatalf("packet must end with xpacket trailer")
		}
		if compact && strings.Contains(string(data), "\n") {
			t.Fatalf("compact packet contains newlines")
		}

		back, err := Parse(data)
		if err != nil {
			t.Fatalf("parse serialized (compact=%v): %v", compact, err)
		}
		if diff := cmp.Diff(doc.Properties(), back.Properties(), cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("round trip mismatch (compact=%v) (-want +got):\n%s", compact, diff)
		}
	}
}

func TestSerializeKeepsParsedPrefixes(t *testing.T) {
	doc, err := Parse([]byte(`<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
		`<rdf:Description xmlns:acme="http://acme.example/ns/1.0/" acme:Rating="5"/></rdf:RDF></x:xmpmeta>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	data, err := Serialize(doc, true)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !strings.Contains(string(data), `acme:Rating="5"`) {
		t.Fatalf("expected acme prefix in %s", data)
	}
}

func TestSerializeDerivesPrefix(t *testing.T) {
	doc := NewDocument()
	doc.SetText("http://unregistered.example/schema/", "Key", "v")

	data, err := Serialize(doc, true)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !strings.Contains(string(data), `xmlns:schema="http://unregistered.example/schema/"`) {
		t.Fatalf("unexpected packet %s", data)
	}

	back, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, _ := back.GetText("http://unregistered.example/schema/", "Key"); got != "v" {
		t.Fatalf("Key = %q", got)
	}
}

func TestSerializeErrors(t *testing.T) {
	doc := NewDocument()
	doc.SetText("", "Key", "v")
	if _, err := Serialize(doc, true); err == nil {
		t.Fatalf("expected error for empty namespace")
	}

	doc = NewDocument()
	doc.SetText(NSDC, "not a name", "v")
	if _, err := Serialize(doc, true); err == nil {
		t.Fatalf("expected error for invalid property name")
	}
}

func TestSerializeEscapes(t *testing.T) {
	doc := NewDocument()
	doc.SetText(NSDC, "source", `a < b & "c"`)

	data, err := Serialize(doc, false)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, _ := back.GetText(NSDC, "source"); got != `a < b & "c"` {
		t.Fatalf("source = %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	badParseType := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
		`<rdf:Description xmlns:dc="http://purl.org/dc/elements/1.1/">` +
		`<dc:x rdf:parseType="Literal">y</dc:x></rdf:Description></rdf:RDF>`

	for name, in := range map[string]string{
		"not xml":       "<<<",
		"no rdf":        `<x:xmpmeta xmlns:x="adobe:ns:meta/"/>`,
		"unclosed":      `<x:xmpmeta xmlns:x="adobe:ns:meta/">`,
		"bad parseType": badParseType,
	} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestRegisterNamespace(t *testing.T) {
	if err := RegisterNamespace("http://example.com/imgmeta/1.0/", "imgmeta"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if p, ok := RegisteredPrefix("http://example.com/imgmeta/1.0/"); !ok || p != "imgmeta" {
		t.Fatalf("prefix = %q, %v", p, ok)
	}

	if err := RegisterNamespace("http://other.example/", "dc"); err == nil {
		t.Fatalf("expected conflict for dc prefix")
	}
	if err := RegisterNamespace("http://other.example/", "x"); err == nil {
		t.Fatalf("expected reserved prefix error")
	}
	if err := RegisterNamespace("", "abc"); err == nil {
		t.Fatalf("expected empty uri error")
	}
	if err := RegisterNamespace("http://other.example/", "1abc"); err == nil {
		t.Fatalf("expected invalid prefix error")
	}

	doc := NewDocument()
	doc.SetText("http://example.com/imgmeta/1.0/", "Note", "hi")
	data, err := Serialize(doc, true)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !strings.Contains(string(data), `imgmeta:Note="hi"`) {
		t.Fatalf("registered prefix not used: %s", data)
	}
}

func TestLocalizedText(t *testing.T) {
	doc := NewDocument()
	doc.SetLocalizedText(NSDC, "title", "de", "See")
	doc.SetLocalizedText(NSDC, "title", "", "Lake")
	doc.SetLocalizedText(NSDC, "title", "fr", "Lac")

	v, _ := doc.Get(NSDC, "title")
	if len(v.Items) != 3 || v.Items[0].Lang != "x-default" {
		t.Fatalf("x-default must come first: %+v", v.Items)
	}

	cases := []struct {
		prefs []language.Tag
		want  string
	}{
		{prefs: nil, want: "Lake"},
		{prefs: []language.Tag{language.German}, want: "See"},
		{prefs: []language.Tag{language.French}, want: "Lac"},
		{prefs: []language.Tag{language.Japanese}, want: "Lake"},
	}
	for _, c := range cases {
		got, ok := doc.LocalizedText(NSDC, "title", c.prefs...)
		if !ok || got != c.want {
			t.Fatalf("LocalizedText(%v) = %q, %v; want %q", c.prefs, got, ok, c.want)
		}
	}

	doc.SetLocalizedText(NSDC, "title", "de", "Bergsee")
	if got, _ := doc.LocalizedText(NSDC, "title", language.German); got != "Bergsee" {
		t.Fatalf("replaced text = %q", got)
	}
}

func TestDocumentCloneIsDeep(t *testing.T) {
	doc := NewDocument()
	doc.Set(NSDC, "subject", Array(Bag, Text("a")))

	c := doc.Clone()
	c.Set(NSDC, "subject", Array(Bag, Text("b")))
	c.Delete(NSDC, "subject")

	v, ok := doc.Get(NSDC, "subject")
	if !ok || v.Items[0].Text != "a" {
		t.Fatalf("original modified: %+v", v)
	}
	if !c.IsEmpty() {
		t.Fatalf("clone should be empty after delete")
	}
}
