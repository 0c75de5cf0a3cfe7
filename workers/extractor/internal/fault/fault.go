// Package fault normalizes the fault payloads returned by the advertising
// API into classified errors.
package fault

import (
	"fmt"
	"sort"
	"strings"

	"bingads-extractor/workers/extractor/internal/domain"
)

// Fault is a decoded vendor fault: the fault string plus the detail tree.
type Fault struct {
	String string
	Detail map[string]interface{}
}

// shapes are searched in order; the first one present wins.
var shapes = [][]string{
	{"ApiFault", "OperationErrors", "OperationError"},
	{"AdApiFaultDetail", "Errors", "AdApiError"},
	{"ApiFaultDetail", "BatchErrors", "BatchError"},
	{"ApiFaultDetail", "OperationErrors", "OperationError"},
	{"EditorialApiFaultDetail", "BatchErrors", "BatchError"},
	{"EditorialApiFaultDetail", "EditorialErrors", "EditorialError"},
	{"EditorialApiFaultDetail", "OperationErrors", "OperationError"},
}

// errorFields are rendered in this order when present.
var errorFields = []string{"ErrorCode", "Code", "Details", "FieldPath", "Message"}

// Translate returns a VendorFault error describing f, or an
// UnrecognizedFault error when f has no known shape and no fault string.
func Translate(f Fault) error {
	for _, shape := range shapes {
		leaf, ok := lookup(f.Detail, shape)
		if !ok {
			continue
		}
		var lines []string
		for _, e := range asList(leaf) {
			if line := render(e); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			return domain.VendorFaultError(strings.Join(lines, "\n"))
		}
	}

	if leaf, ok := lookup(f.Detail, []string{"ExceptionDetail"}); ok {
		var lines []string
		for _, e := range asList(leaf) {
			if m, ok := e.(map[string]interface{}); ok {
				if msg := scalar(m["Message"]); msg != "" {
					lines = append(lines, msg)
				}
			}
		}
		if len(lines) > 0 {
			return domain.VendorFaultError(strings.Join(lines, "\n"))
		}
	}

	if s := strings.TrimSpace(f.String); s != "" {
		return domain.VendorFaultError(s)
	}

	return domain.NewError(domain.UnrecognizedFault,
		fmt.Sprintf("fault with unknown shape (detail keys: %s)", strings.Join(keys(f.Detail), ", ")), nil)
}

func lookup(node map[string]interface{}, path []string) (interface{}, bool) {
	var cur interface{} = node
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func asList(v interface{}) []interface{} {
	if list, ok := v.([]interface{}); ok {
		return list
	}
	return []interface{}{v}
}

func render(e interface{}) string {
	m, ok := e.(map[string]interface{})
	if !ok {
		return ""
	}
	var parts []string
	for _, field := range errorFields {
		if v, ok := m[field]; ok && v != nil {
			parts = append(parts, fmt.Sprintf("%s: %s", field, scalar(v)))
		}
	}
	return strings.Join(parts, ", ")
}

func scalar(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
