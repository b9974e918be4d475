package companion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/yanqian/gaptime-companion/internal/domain/appmessage"
	"github.com/yanqian/gaptime-companion/internal/domain/suntimes"
	apperrors "github.com/yanqian/gaptime-companion/pkg/errors"
)

// cancelledResponse is what the host reports when the web view is dismissed
// without saving.
const cancelledResponse = "CANCELLED"

// configurationFields maps configuration page fields onto message keys, in
// the order they are relayed.
var configurationFields = []struct {
	field string
	key   string
}{
	{"textTime", appmessage.KeyTextTime},
	{"handOrder", appmessage.KeyHandOrder},
	{"invert", appmessage.KeyInvert},
	{"invertStart", appmessage.KeyInvertStart},
	{"invertStartMin", appmessage.KeyInvertStartMin},
	{"invertStartHour", appmessage.KeyInvertStartHour},
	{"invertEnd", appmessage.KeyInvertEnd},
	{"invertEndMin", appmessage.KeyInvertEndMin},
	{"invertEndHour", appmessage.KeyInvertEndHour},
}

// Configuration is the decoded result of the remote configuration page.
type Configuration struct {
	values map[string]any
	raw    string
}

// IsCancelled reports whether a web view response carries no configuration.
func IsCancelled(response string) bool {
	trimmed := strings.TrimSpace(response)
	return trimmed == "" || trimmed == cancelledResponse
}

// DecodeConfiguration parses a URL-encoded JSON object. Known fields must hold
// strings, integers or booleans; unknown fields are ignored.
func DecodeConfiguration(response string) (Configuration, error) {
	decoded, err := url.PathUnescape(strings.TrimSpace(response))
	if err != nil {
		return Configuration{}, apperrors.Wrap(apperrors.CodeInvalidConfiguration, "configuration is not URL-encoded", err)
	}

	dec := json.NewDecoder(strings.NewReader(decoded))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Configuration{}, apperrors.Wrap(apperrors.CodeInvalidConfiguration, "configuration is not a JSON object", err)
	}
	if fields == nil {
		return Configuration{}, apperrors.Wrap(apperrors.CodeInvalidConfiguration, "configuration is not a JSON object", nil)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Configuration{}, apperrors.Wrap(apperrors.CodeInvalidConfiguration, "trailing data after configuration", nil)
	}

	values := make(map[string]any, len(configurationFields))
	for _, f := range configurationFields {
		v, ok := fields[f.field]
		if !ok || v == nil {
			continue
		}
		scalar, err := appmessage.Scalar(v)
		if err != nil {
			return Configuration{}, apperrors.Wrap(apperrors.CodeInvalidConfiguration, fmt.Sprintf("configuration field %s", f.field), err)
		}
		values[f.field] = scalar
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(decoded)); err != nil {
		compact.Reset()
		compact.WriteString(decoded)
	}
	return Configuration{values: values, raw: compact.String()}, nil
}

// Value returns the normalised value of a configuration page field.
func (c Configuration) Value(field string) (any, bool) {
	v, ok := c.values[field]
	return v, ok
}

// String returns the configuration as compact JSON.
func (c Configuration) String() string {
	return c.raw
}

// InvertPreference reads the orientation chosen on the page.
func (c Configuration) InvertPreference() suntimes.Preference {
	v, ok := c.values["invert"].(string)
	if !ok {
		return suntimes.PreferenceOff
	}
	return suntimes.ParsePreference(v)
}

// Payload relays the decoded fields verbatim. The invert window is taken from
// the page, not recomputed from sun times.
func (c Configuration) Payload() appmessage.Payload {
	payload := make(appmessage.Payload, len(c.values))
	for _, f := range configurationFields {
		if v, ok := c.values[f.field]; ok {
			payload[f.key] = v
		}
	}
	return payload
}

// ConfigurationURL appends the app version to the configuration page address.
func ConfigurationURL(pageURL, version string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return "", fmt.Errorf("parse configuration page url: %w", err)
	}
	q := u.Query()
	q.Set("version", version)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
