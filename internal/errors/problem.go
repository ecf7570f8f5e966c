package errors

import (
	"encoding/json"
	"maps"
	"net/http"

	"github.com/go-chi/render"
)

// Problem type URIs. Relative references, resolved against the API host.
const (
	TypeValidation        = "/errors/validation"
	TypeNotFound          = "/errors/not-found"
	TypeMethodNotAllowed  = "/errors/method-not-allowed"
	TypeRateLimit         = "/errors/rate-limit"
	TypeTimeout           = "/errors/timeout"
	TypePayloadTooLarge   = "/errors/payload-too-large"
	TypeUnsupportedExport = "/errors/export/unsupported"
	TypeUnreadableExport  = "/errors/export/unreadable"
	TypeStorage           = "/errors/storage"
	TypeModelUnavailable  = "/errors/model/unavailable"
	TypeServiceDown       = "/errors/service-unavailable"
	TypeConfig            = "/errors/config"
	TypeInternal          = "/errors/internal"
)

// ProblemDetails is an RFC 7807 body. Extensions are flattened into the
// top-level object on encode; they never shadow the standard members.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`
}

// NewProblemDetails builds a problem. An empty title defaults to the
// status text.
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	if title == "" {
		title = http.StatusText(status)
	}
	return &ProblemDetails{
		Type:     problemType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

// WithExtension sets an extension member and returns pd for chaining
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	if pd.Extensions == nil {
		pd.Extensions = map[string]interface{}{}
	}
	pd.Extensions[key] = value
	return pd
}

// Render sets the response status for chi/render
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	// alias drops the method set so the inner Marshal does not recurse
	type standard ProblemDetails
	base, err := json.Marshal((*standard)(pd))
	if err != nil || len(pd.Extensions) == 0 {
		return base, err
	}

	var members map[string]interface{}
	if err := json.Unmarshal(base, &members); err != nil {
		return nil, err
	}
	merged := maps.Clone(pd.Extensions)
	maps.Copy(merged, members)
	return json.Marshal(merged)
}
