package shrink

import "regexp"

// versionHeaderLimit bounds how far into the document the header marker is
// searched for. Real-world PDFs carry the marker in the first line, but some
// tools prepend junk bytes.
const versionHeaderLimit = 1024

var versionPattern = regexp.MustCompile(`%PDF-(\d\.\d)`)

// SniffVersion extracts the declared PDF format version from the first bytes
// of a document. The second return value is false when no marker is found;
// callers substitute DefaultPDFVersion.
func SniffVersion(data []byte) (string, bool) {
	head := data
	if len(head) > versionHeaderLimit {
		head = head[:versionHeaderLimit]
	}

	match := versionPattern.FindSubmatch(head)
	if match == nil {
		return "", false
	}

	return string(match[1]), true
}
