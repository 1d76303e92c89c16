package imaging

const (
	// DefaultRes is the resolution in DPI assumed when none is stored.
	DefaultRes = 72

	defaultQuality = 90
)

const (
	xpacketPrefix = "<?xpacket begin"
	pngXMPKeyword = "XML:com.adobe.xmp"
	xmpNamespace  = "http://ns.adobe.com/xap/1.0/"
)

var (
	// xmpHeader prefixes the XMP packet in a JPEG APP1 segment.
	xmpHeader = []byte(xmpNamespace + "\x00")
	// iccSig prefixes ICC profile chunks in JPEG APP2 segments, followed by
	// the chunk sequence number and the chunk count.
	iccSig = []byte{'I', 'C', 'C', '_', 'P', 'R', 'O', 'F', 'I', 'L', 'E', 0}
)

const (
	markerAPP1 = 0xE1
	markerAPP2 = 0xE2

	xmpHeaderLen = 29
	iccHeaderLen = 14
)
