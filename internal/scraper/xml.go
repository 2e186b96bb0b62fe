package scraper

import (
	"encoding/json"
	"encoding/xml"
)

func marshalNode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// xmlNode is a generic XML tree used to convert an RSS/Atom feed into a
// JSON document so scrapeRSS can reuse the same gjson dotted-path field
// extraction the api branch uses, rather than a second field-access
// mechanism just for XML.
type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []xmlNode  `xml:",any"`
}

// toJSON renders the node tree as a JSON object keyed by child element
// name, repeated children becoming arrays. Attributes are exposed
// under "@attr" keys and text content under "#text" when a node also
// has children; a leaf node serializes as its trimmed text directly.
func (n xmlNode) toJSON() ([]byte, error) {
	root := map[string]interface{}{n.XMLName.Local: nodeContent(n)}
	return marshalNode(root)
}

// nodeContent renders a node's own content (attrs/text/children) as a
// value, without wrapping it in its own element name - the caller
// (either toJSON for the root, or nodeContent's child loop) is
// responsible for keying it by name.
func nodeContent(n xmlNode) interface{} {
	if len(n.Nodes) == 0 && len(n.Attrs) == 0 {
		return trimSpace(n.Content)
	}

	obj := make(map[string]interface{})
	for _, a := range n.Attrs {
		obj["@"+a.Name.Local] = a.Value
	}
	if s := trimSpace(n.Content); s != "" {
		obj["#text"] = s
	}

	children := make(map[string][]interface{})
	order := make([]string, 0)
	for _, child := range n.Nodes {
		name := child.XMLName.Local
		if _, seen := children[name]; !seen {
			order = append(order, name)
		}
		children[name] = append(children[name], nodeContent(child))
	}
	for _, name := range order {
		vals := children[name]
		if len(vals) == 1 {
			obj[name] = vals[0]
		} else {
			obj[name] = vals
		}
	}

	return obj
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
