package vault

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var delimiter = []byte("---")

// Metadata is the YAML front matter of a document.
type Metadata map[string]any

// splitFrontMatter separates a leading `---` block from the body. A document
// without one has nil front matter.
func splitFrontMatter(content []byte) (front []byte, body []byte) {
	rest, ok := cutLine(content, delimiter)
	if !ok {
		return nil, content
	}

	for offset := 0; offset <= len(rest); {
		line, next := nextLine(rest[offset:])
		if bytes.Equal(bytes.TrimRight(line, "\r"), delimiter) {
			return rest[:offset], rest[offset+next:]
		}
		if next == 0 {
			break
		}
		offset += next
	}

	// unterminated block is treated as body
	return nil, content
}

func cutLine(content, prefix []byte) ([]byte, bool) {
	line, next := nextLine(content)
	if !bytes.Equal(bytes.TrimRight(line, "\r"), prefix) || next == len(line) {
		return nil, false
	}
	return content[next:], true
}

// nextLine returns the first line without its newline and the offset of the following line.
func nextLine(b []byte) ([]byte, int) {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return b[:i], i + 1
	}
	return b, len(b)
}

func parseFrontMatter(front []byte) (Metadata, error) {
	meta := Metadata{}
	if len(bytes.TrimSpace(front)) == 0 {
		return meta, nil
	}
	if err := yaml.Unmarshal(front, &meta); err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}
	if meta == nil {
		meta = Metadata{}
	}
	return meta, nil
}

// joinFrontMatter renders meta ahead of body. Empty metadata drops the block.
func joinFrontMatter(meta Metadata, body []byte) ([]byte, error) {
	if len(meta) == 0 {
		return body, nil
	}

	var buf bytes.Buffer
	buf.Write(delimiter)
	buf.WriteByte('\n')

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any(meta)); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	buf.Write(delimiter)
	buf.WriteByte('\n')
	buf.Write(body)
	return buf.Bytes(), nil
}
