package logger

import (
	"net/http"
	"strings"
)

// maskers keyed by lowercased header name. Access logs carry the full
// header map, so anything credential-bearing goes through one of these.
var maskers = map[string]func(string) string{
	"authorization": MaskAuthorization,
	"cookie":        MaskCookie,
}

// MaskAuthorization keeps the Bearer scheme visible and masks the token
// down to its last four characters.
func MaskAuthorization(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if parts := strings.Fields(value); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return "Bearer " + maskTail(parts[1])
	}
	return maskTail(value)
}

// MaskCookie keeps cookie names and masks every value.
func MaskCookie(value string) string {
	segments := strings.Split(value, ";")
	masked := segments[:0]
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		name, val, found := strings.Cut(segment, "=")
		if found {
			segment = strings.TrimSpace(name) + "=" + maskTail(strings.TrimSpace(val))
		} else {
			segment = maskTail(segment)
		}
		masked = append(masked, segment)
	}
	return strings.Join(masked, "; ")
}

// MaskHeaders flattens headers into a loggable map, masking the sensitive
// ones.
func MaskHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for key, values := range headers {
		joined := strings.Join(values, ",")
		if mask, ok := maskers[strings.ToLower(strings.TrimSpace(key))]; ok {
			joined = mask(joined)
		}
		out[key] = joined
	}
	return out
}

func maskTail(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****" + value
	}
	return "****" + value[len(value)-4:]
}
