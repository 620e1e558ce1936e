package drafter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// keySynonyms maps loose payload keys onto template placeholder names.
var keySynonyms = map[string]string{
	"DETAILS":        "CASE_DETAILS",
	"CASE":           "CASE_DETAILS",
	"REF":            "REF_NO",
	"REFERENCE":      "REF_NO",
	"OPPONENT":       "OPPONENT_NAME",
	"OPPOSITE_PARTY": "OPPONENT_NAME",
	"RESPONDENT":     "OPPONENT_NAME",
	"CLIENT":         "CLIENT_NAME",
	"COMPLAINANT":    "CLIENT_NAME",
	"APPLICANT":      "CLIENT_NAME",
	"DEFECT":         "DEFECT_DETAILS",
	"COMPENSATION":   "COMPENSATION_AMOUNT",
	"AMOUNT":         "COMPENSATION_AMOUNT",
}

// CanonicalKey uppercases key, turns spaces into underscores and applies
// the synonym table.
func CanonicalKey(key string) string {
	k := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(key)), " ", "_")
	if canon, ok := keySynonyms[k]; ok {
		return canon
	}
	return k
}

// Normalize maps a payload onto canonical placeholder names with string
// values. Keys are visited in sorted order, so when two keys share a
// canonical name the later one wins.
func Normalize(payload map[string]any) map[string]string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(payload))
	for _, k := range keys {
		canon := CanonicalKey(k)
		if canon == "" {
			continue
		}
		out[canon] = stringify(payload[k])
	}
	return out
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	case fmt.Stringer:
		return x.String()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// ParsePayload decodes a JSON object. Text that fails to parse gets one
// repair attempt before the original error is returned.
func ParsePayload(text string) (map[string]any, error) {
	payload, err := decodeObject(text)
	if err == nil {
		return payload, nil
	}
	repaired, rerr := jsonrepair.JSONRepair(text)
	if rerr != nil {
		return nil, err
	}
	payload, rerr = decodeObject(repaired)
	if rerr != nil {
		return nil, err
	}
	return payload, nil
}

func decodeObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid payload: trailing data")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid payload: expected a JSON object")
	}
	return obj, nil
}
