package server

import (
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	errs "github.com/ctfer-io/scenario-editor/pkg/errors"
	"github.com/ctfer-io/scenario-editor/pkg/scenario"
)

const (
	maxFormSize = 10 << 20

	revisionField = scenario.ReservedPrefix + "revision"
)

// readForm decodes an url-encoded body keeping the fields in submission
// order, as the order of new sections depends on it.
func readForm(w http.ResponseWriter, r *http.Request) ([]scenario.Field, error) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != "application/x-www-form-urlencoded" {
			return nil, &errs.ErrValidationFailed{Field: "content type", Reason: "expected an url-encoded form"}
		}
	}

	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFormSize))
	if err != nil {
		return nil, err
	}

	fields := []scenario.Field{}
	for _, pair := range strings.Split(string(b), "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(k)
		if err != nil {
			return nil, &errs.ErrValidationFailed{Field: "form", Reason: err.Error()}
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, &errs.ErrValidationFailed{Field: name, Reason: err.Error()}
		}
		fields = append(fields, scenario.Field{Name: name, Value: value})
	}
	return fields, nil
}

// revisionOf returns the revision the form has been built upon, if any.
func revisionOf(fields []scenario.Field) string {
	for _, f := range fields {
		if f.Name == revisionField {
			return f.Value
		}
	}
	return ""
}

func editPath(rawID string) string {
	return "/edit_scenario/" + url.PathEscape(rawID)
}
