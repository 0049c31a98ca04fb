// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package extract turns raw uploaded bytes into UTF-8 text. PDF, Word and
// HTML go through docconv; everything else is treated as plain text with
// invalid byte sequences replaced rather than rejected.
package extract

import (
	"bytes"
	"fmt"
	"mime"
	"strconv"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
)

// Content types routed through docconv.
const (
	TypePDF  = "application/pdf"
	TypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeHTML = "text/html"
)

// Result is the outcome of text extraction.
type Result struct {
	Text string
	// Pages is 0 when the format is not paginated or the converter
	// didn't report a count.
	Pages int
}

// Extract converts raw file bytes into text based on content type.
// Unknown content types fall back to the plain-text path.
func Extract(data []byte, contentType string) (*Result, error) {
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	switch mediaType {
	case TypePDF, TypeDocx, TypeHTML:
		return convert(data, mediaType)
	default:
		return &Result{Text: PlainText(data)}, nil
	}
}

// convert runs docconv and maps its response.
func convert(data []byte, mediaType string) (*Result, error) {
	res, err := docconv.Convert(bytes.NewReader(data), mediaType, false)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", mediaType, err)
	}

	result := &Result{Text: res.Body}
	if pages, ok := res.Meta["Pages"]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(pages)); err == nil {
			result.Pages = n
		}
	}
	return result, nil
}

// PlainText decodes bytes permissively: valid UTF-8 passes through, invalid
// sequences become the replacement character. Decoding never fails.
func PlainText(data []byte) string {
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}
