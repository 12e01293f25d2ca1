package metric

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// DixMode selects how an lttoolbox dictionary is counted.
type DixMode int

const (
	// DixBilingual counts <l> elements under <e> entries of the section with id="main".
	DixBilingual DixMode = iota
	// DixMonolingual counts section entries carrying a lemma (lm) attribute.
	DixMonolingual
)

// DixCounter counts stems in an lttoolbox .dix dictionary.
type DixCounter struct {
	Mode DixMode
}

// Count streams the XML and counts matching elements.
func (c DixCounter) Count(content []byte) (int, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var stack []xml.StartElement
	count := 0
	sawRoot := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrFormatMismatch, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				sawRoot = true
			}
			if c.matches(stack, t) {
				count++
			}
			stack = append(stack, t)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if !sawRoot {
		return 0, fmt.Errorf("%w: no root element", ErrFormatMismatch)
	}
	return count, nil
}

func (c DixCounter) matches(stack []xml.StartElement, el xml.StartElement) bool {
	switch c.Mode {
	case DixMonolingual:
		return len(stack) == 2 &&
			stack[1].Name.Local == "section" &&
			hasAttr(el, "lm")
	default:
		return el.Name.Local == "l" &&
			len(stack) >= 3 &&
			attrValue(stack[1], "id") == "main" &&
			stack[2].Name.Local == "e"
	}
}

func hasAttr(el xml.StartElement, name string) bool {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return true
		}
	}
	return false
}

func attrValue(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
