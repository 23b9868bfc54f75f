// Package charset converts HTTP response bodies to UTF-8 strings.
package charset

import (
	"regexp"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

var charsetPattern = regexp.MustCompile(`charset=["']?([a-zA-Z0-9_-]+)`)

// Decode converts response bytes to a UTF-8 string. The charset is sniffed
// from a meta-tag pattern within the first 1000 bytes, then taken from the
// Content-Type header, then assumed UTF-8.
func Decode(body []byte, contentType string) string {
	head := body
	if len(head) > 1000 {
		head = head[:1000]
	}

	name := ""
	if match := charsetPattern.FindSubmatch(head); match != nil {
		name = string(match[1])
	}
	if name == "" {
		if match := charsetPattern.FindStringSubmatch(contentType); match != nil {
			name = match[1]
		}
	}
	if name == "" {
		name = "utf-8"
	}

	name = strings.ToLower(name)
	if name == "utf-8" || name == "utf8" {
		return string(body)
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return string(body)
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
