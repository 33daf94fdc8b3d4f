package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	errNoFence       = errors.New("no fenced json block")
	errNoBraces      = errors.New("no brace-enclosed object")
	errNotPlainText  = errors.New("not plain text or no wrap key")
	errNothingToWrap = errors.New("empty answer or no wrap key")
)

var fencePattern = regexp.MustCompile("(?is)```json\\s*(.*?)\\s*```")

// extractor is one layer of the fallback chain. It never panics; a failure
// is reported as an error and the next layer is tried.
type extractor struct {
	name string
	fn   func(raw, wrapKey string) (Object, error)
}

var extractors = []extractor{
	{"fenced", fromFence},
	{"braces", fromBraces},
	{"plain_text", wrapPlainText},
	{"whole", fromWhole},
	{"wrapped_text", wrapAnyText},
}

// Extract recovers a JSON object from a model answer. Layers are tried in order:
// a ```json fenced block, the span from the first '{' to the last '}', a
// {wrapKey: text} wrap for prose that does not start an object, then the whole
// text. With a wrap key, any non-empty answer that still fails is wrapped as is.
// It returns the object and the name of the layer that produced it.
func Extract(raw, wrapKey string) (Object, string, error) {
	var errs []string
	for _, x := range extractors {
		obj, err := x.fn(raw, wrapKey)
		if err == nil {
			return obj, x.name, nil
		}
		errs = append(errs, x.name+": "+err.Error())
	}
	return nil, "", fmt.Errorf("no JSON object in model answer (%s)", strings.Join(errs, "; "))
}

func parseObject(s string) (Object, error) {
	var obj Object
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("json value is not an object")
	}
	return obj, nil
}

func fromFence(raw, _ string) (Object, error) {
	m := fencePattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, errNoFence
	}
	return parseObject(m[1])
}

func fromBraces(raw, _ string) (Object, error) {
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first == -1 || last <= first {
		return nil, errNoBraces
	}
	return parseObject(raw[first : last+1])
}

func wrapPlainText(raw, wrapKey string) (Object, error) {
	text := strings.TrimSpace(raw)
	if wrapKey == "" || strings.HasPrefix(text, "{") {
		return nil, errNotPlainText
	}
	return wrapText(wrapKey, text)
}

func fromWhole(raw, _ string) (Object, error) {
	return parseObject(strings.TrimSpace(raw))
}

func wrapAnyText(raw, wrapKey string) (Object, error) {
	text := strings.TrimSpace(raw)
	if wrapKey == "" || text == "" {
		return nil, errNothingToWrap
	}
	return wrapText(wrapKey, text)
}

func wrapText(key, text string) (Object, error) {
	value, err := json.Marshal(text)
	if err != nil {
		return nil, err
	}
	return Object{key: value}, nil
}
