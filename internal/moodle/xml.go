package moodle

import (
	"bytes"
	"encoding/xml"
	"strconv"
)

// null is the restore-time placeholder for foreign keys the importer remaps.
const null = "$@NULL@$"

// Marshal renders a document with two-space indentation behind the UTF-8
// XML declaration. Leaf elements stay on one line.
func Marshal(doc any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// emptyDoc is a root element with no content, e.g. <users></users>.
type emptyDoc struct {
	XMLName xml.Name
}

func stubXML(root string) ([]byte, error) {
	return Marshal(emptyDoc{XMLName: xml.Name{Local: root}})
}

func fraction(correct bool) string {
	if correct {
		return "1.0000000"
	}
	return "0.0000000"
}

func decimal7(f float64) string { return strconv.FormatFloat(f, 'f', 7, 64) }
func decimal5(f float64) string { return strconv.FormatFloat(f, 'f', 5, 64) }

func itoa(i int64) string { return strconv.FormatInt(i, 10) }
