package tracing

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

var sensitiveKeyFragments = []string{"password", "secret", "token", "authorization"}

// SafeAttributes filters out attributes whose keys suggest credentials.
// Span attributes end up in external tracing backends, so the filter errs
// on the side of dropping.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	safe := attrs[:0]
	for _, attr := range attrs {
		key := strings.ToLower(strings.TrimSpace(string(attr.Key)))
		sensitive := false
		for _, fragment := range sensitiveKeyFragments {
			if strings.Contains(key, fragment) {
				sensitive = true
				break
			}
		}
		if !sensitive {
			safe = append(safe, attr)
		}
	}
	return safe
}

// SafeError reduces an error to its dynamic type for span events, since
// error strings may embed row values.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%T", err)
}
