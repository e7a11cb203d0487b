package contactform

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

const codeMailDisabled = "MAIL_DISABLED"

type apiResponse struct {
	OK      *bool  `json:"ok"`
	ID      string `json:"id"`
	Error   string `json:"error"`
	Details *struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	} `json:"details"`
}

// Classify maps an endpoint response onto an Outcome. The first matching
// rule wins:
//
//  1. 2xx with ok true or absent: Success
//  2. non-empty details.fieldErrors: ValidationError with the first message per field
//  3. 503 or error MAIL_DISABLED: MailDisabled
//  4. 429: RateLimited
//  5. 5xx: ServerError
//  6. anything else: ValidationError without fields
//
// A body that is not JSON is treated as empty.
func Classify(status int, header http.Header, body []byte) Outcome {
	var res apiResponse
	_ = json.Unmarshal(body, &res)

	if status >= 200 && status < 300 && (res.OK == nil || *res.OK) {
		return Success{MessageID: res.ID}
	}

	if res.Details != nil {
		fields := make(map[string]string, len(res.Details.FieldErrors))
		for field, msgs := range res.Details.FieldErrors {
			if len(msgs) > 0 {
				fields[field] = msgs[0]
			}
		}
		if len(fields) > 0 {
			return ValidationError{FieldErrors: fields, Code: res.Error}
		}
	}

	switch {
	case status == http.StatusServiceUnavailable || res.Error == codeMailDisabled:
		return MailDisabled{}
	case status == http.StatusTooManyRequests:
		return RateLimited{RetryAfter: retryAfter(header)}
	case status >= 500:
		return ServerError{Status: status, Code: res.Error}
	}
	return ValidationError{FieldErrors: map[string]string{}, Code: res.Error}
}

func retryAfter(header http.Header) time.Duration {
	if header == nil {
		return 0
	}
	secs, err := strconv.Atoi(header.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
