package router

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/shandysiswandi/billease/internal/pkg/config"
	"github.com/shandysiswandi/billease/internal/pkg/instrument"
)

const maskedValue = instrument.MaskedValue

// maskSet applies the log masker to HTTP headers and bodies.
type maskSet struct {
	instrument.Masker
}

func newMaskSet(cfg config.Config) maskSet {
	var extra []string
	if cfg != nil {
		extra = cfg.GetArray("instrument.log_mask_fields")
	}
	return maskSet{instrument.NewMasker(extra)}
}

func (m maskSet) headers(h http.Header) http.Header {
	out := h.Clone()
	for key := range out {
		if m.Sensitive(key) {
			out.Set(key, maskedValue)
		}
	}
	return out
}

// body renders a request or response body for logging with masked fields.
func (m maskSet) body(contentType string, body []byte) any {
	if len(body) == 0 {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil {
		return m.Data(decoded)
	}

	if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		if values, err := url.ParseQuery(string(body)); err == nil {
			out := make(map[string]any, len(values))
			for k, v := range values {
				switch {
				case m.Sensitive(k):
					out[k] = maskedValue
				case len(v) == 1:
					out[k] = v[0]
				default:
					out[k] = v
				}
			}
			return out
		}
	}

	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	return string(body)
}
