package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"libraryledger/internal/errs"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// Bind decodes the JSON body into dst and validates its `validate` tags.
func Bind(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errs.Invalidf("invalid body: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return errs.Invalidf("%s", strings.Join(fields, ", "))
		}
		return errs.Invalidf("%v", err)
	}
	return nil
}

// IntQuery reads an integer query parameter, returning def when it is absent.
func IntQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.Invalidf("%s must be an integer", name)
	}
	return v, nil
}

// DateQuery reads a YYYY-MM-DD query parameter. ok is false when it is absent.
func DateQuery(r *http.Request, name string) (t time.Time, ok bool, err error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, false, errs.Invalidf("%s must be a YYYY-MM-DD date", name)
	}
	return t, true, nil
}

// ParseID parses a positive integer path parameter.
func ParseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Invalidf("invalid %s", name)
	}
	return id, nil
}
