// Package source streams line-delimited JSON records into domain items.
// Malformed lines are logged and counted, never fatal to the stream.
package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
)

// maxLineBytes bounds a single record line. Question bodies run long
// but nowhere near this.
const maxLineBytes = 4 * 1024 * 1024

// rawRecord is the wire shape of one source line. Everything beyond the
// declared fields is passthrough metadata.
type rawRecord struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Reader streams items from a JSONL stream.
type Reader struct {
	r         io.Reader
	logger    *zap.Logger
	malformed int
}

// NewReader creates a JSONL reader.
func NewReader(r io.Reader, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{r: r, logger: logger}
}

// Each yields well-formed items in stream order. The callback returns
// false to stop early. Malformed lines are skipped with a warning.
func (rd *Reader) Each(fn func(item domain.Item) bool) error {
	scanner := bufio.NewScanner(rd.r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		item, err := parseLine([]byte(line))
		if err != nil {
			rd.malformed++
			rd.logger.Warn("skipping malformed record",
				zap.Int("line", lineNo),
				zap.Error(err),
			)
			continue
		}

		if !fn(item) {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read source line %d: %w", lineNo+1, err)
	}
	return nil
}

// Malformed returns the count of skipped malformed lines so far.
func (rd *Reader) Malformed() int { return rd.malformed }

// parseLine decodes one JSONL line into an item. Known fields map onto
// the item; everything else passes through as string metadata.
func parseLine(line []byte) (domain.Item, error) {
	var raw rawRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return domain.Item{}, fmt.Errorf("%w: %w", domain.ErrInputFormat, err)
	}

	kind, err := domain.ParseKind(raw.Type)
	if err != nil {
		return domain.Item{}, err
	}

	item := domain.Item{
		Kind:  kind,
		Title: raw.Title,
		Body:  raw.Body,
		Meta:  parseMeta(line),
	}

	if err := item.Validate(); err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

// parseMeta collects passthrough fields as strings. Scalars are
// stringified; nested values are kept as compact JSON.
func parseMeta(line []byte) map[string]string {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(line, &all); err != nil {
		return nil
	}

	delete(all, "type")
	delete(all, "title")
	delete(all, "body")
	if len(all) == 0 {
		return nil
	}

	meta := make(map[string]string, len(all))
	for k, v := range all {
		meta[k] = stringifyValue(v)
	}
	return meta
}

func stringifyValue(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return string(raw)
	}
}
