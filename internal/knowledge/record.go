package knowledge

import (
	"fmt"
	"strings"
)

// TransportField holds the base64-encoded transport number
const TransportField = "elo_transport"

// reservedPrefixes mark provenance fields the search service adds to a document
var reservedPrefixes = []string{"@", "metadata_", "AzureSearch_"}

// Field is a single named scalar of a record. A nil Value is a JSON null.
type Field struct {
	Name  string
	Value any
}

// Record is a search document with its fields in document order
type Record struct {
	Fields []Field
}

// IsReserved reports whether a field name belongs to the search service rather than the document
func IsReserved(name string) bool {
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Summary renders the displayable fields as comma-joined "key: value" pairs.
// The transport field is decoded (a null transport shows as not available);
// other null fields and reserved fields are skipped.
func (r Record) Summary() string {
	parts := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		value := f.Value
		if f.Name == TransportField {
			switch v := value.(type) {
			case nil:
				value = notAvailable
			case string:
				value = DecodeKey(v)
			}
		}
		if value == nil || IsReserved(f.Name) {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", f.Name, value))
	}
	return strings.Join(parts, ", ")
}

// Banner wraps a record summary for inclusion in a prompt
func Banner(r Record) string {
	return "--- Context from knowledge base (Kontext aus der Wissensbasis) ---\n" +
		"Record found: " + r.Summary() + "\n" +
		"---------------------------------"
}
