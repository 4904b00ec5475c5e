package transfer

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

// IsMetalink reports whether rawURL points at a metalink document.
func IsMetalink(rawURL string) bool {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".meta4", ".metalink":
		return true
	default:
		return false
	}
}

// MetalinkFile is one file described by a metalink document.
type MetalinkFile struct {
	Name string
	Size int64
}

type metalinkFileNode struct {
	Name string `xml:"name,attr"`
	Size string `xml:"size"`
}

// ParseMetalink returns every file listed in a metalink v3 or v4 document.
// Namespaces are ignored; an unparsable size is reported as 0.
func ParseMetalink(r io.Reader) ([]MetalinkFile, error) {
	dec := xml.NewDecoder(r)
	var files []MetalinkFile
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid metalink: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "file" {
			continue
		}
		var node metalinkFileNode
		if err := dec.DecodeElement(&node, &start); err != nil {
			return nil, fmt.Errorf("invalid metalink file entry: %w", err)
		}
		if node.Name == "" {
			return nil, fmt.Errorf("metalink file entry has no name")
		}
		var size int64
		_, _ = fmt.Sscan(strings.TrimSpace(node.Size), &size)
		files = append(files, MetalinkFile{Name: node.Name, Size: size})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("metalink lists no files")
	}
	return files, nil
}
