package assistant

import (
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/shoproute/backend/internal/domain"
)

// unquotedKeyRegex repairs model output like {Meat: "lobster"} where keys
// were emitted without quotes.
var unquotedKeyRegex = regexp.MustCompile(`([{\[,]\s*)([A-Za-z_][A-Za-z0-9_ ]*?)\s*:`)

// ExtractItems pulls the first balanced {...} object out of noisy model text,
// repairs unquoted keys, and decodes it into ordered category/item pairs.
// Key order is preserved because later duplicate categories must lose to
// earlier ones downstream. Returns ErrNoStructuredData when no mapping-like
// substring can be decoded.
func ExtractItems(text string) ([]domain.RequestItem, error) {
	obj, ok := firstBalancedObject(text)
	if !ok {
		return nil, domain.ErrNoStructuredData
	}

	repaired := unquotedKeyRegex.ReplaceAllString(obj, `$1"$2":`)

	items, err := decodeOrderedItems(repaired)
	if err != nil || len(items) == 0 {
		return nil, domain.ErrNoStructuredData
	}
	return items, nil
}

// firstBalancedObject scans for the first '{' and returns the substring up to
// its matching '}', tracking string literals so braces inside values do not
// confuse the balance count.
func firstBalancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// decodeOrderedItems walks the object token by token so key order survives.
// String values become items; array values contribute each string element
// under the same category; anything else is skipped.
func decodeOrderedItems(raw string) ([]domain.RequestItem, error) {
	dec := json.NewDecoder(strings.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, domain.ErrNoStructuredData
	}

	var items []domain.RequestItem
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch v := valTok.(type) {
		case string:
			items = append(items, domain.RequestItem{Category: key, ProductQuery: v})
		case json.Delim:
			if v == '[' {
				for dec.More() {
					elemTok, err := dec.Token()
					if err != nil {
						return nil, err
					}
					if s, ok := elemTok.(string); ok {
						items = append(items, domain.RequestItem{Category: key, ProductQuery: s})
					} else if delim, ok := elemTok.(json.Delim); ok && (delim == '{' || delim == '[') {
						if err := skipObject(dec); err != nil {
							return nil, err
						}
					}
				}
				if _, err := dec.Token(); err != nil { // closing ]
					return nil, err
				}
			} else if v == '{' {
				if err := skipObject(dec); err != nil {
					return nil, err
				}
			}
		}
	}

	return items, nil
}

// skipObject consumes tokens until the already-opened object closes
func skipObject(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
