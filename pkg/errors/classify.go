package errors

import "fmt"

// ClassifyPublishStatus maps the HTTP status of a publish call to a typed
// outcome. A nil return means the publish succeeded. Any status outside the
// known set is escalated verbatim with the code attached, never coerced into
// a known category.
func ClassifyPublishStatus(statusCode int) error {
	switch statusCode {
	case 200:
		return nil
	case 401, 403:
		return &Error{
			Code:       CodeUnauthorized,
			Message:    "not authorized to publish to this topic",
			StatusCode: statusCode,
		}
	case 413:
		return &Error{
			Code:       CodeEntityTooLarge,
			Message:    "the payload is too large",
			StatusCode: statusCode,
		}
	case 429:
		return &Error{
			Code:       CodeTooManyRequests,
			Message:    "too many requests",
			StatusCode: statusCode,
		}
	default:
		return &Error{
			Code:       CodeUnexpectedStatus,
			Message:    fmt.Sprintf("unexpected status code %d", statusCode),
			StatusCode: statusCode,
		}
	}
}

// ClassifyAuthStatus maps the HTTP status of a topic auth check to an
// allowed/denied outcome. Old servers lack the auth endpoint entirely and
// return 404 there; for anonymous checks that reads as "anonymous access
// permitted". Any other status outside the known set is a fatal error, not a
// silent denial.
func ClassifyAuthStatus(statusCode int, anonymous bool) (bool, error) {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return true, nil
	case anonymous && statusCode == 404:
		return true, nil
	case statusCode == 401 || statusCode == 403:
		return false, nil
	default:
		return false, &Error{
			Code:       CodeUnexpectedStatus,
			Message:    fmt.Sprintf("unexpected status code %d", statusCode),
			StatusCode: statusCode,
		}
	}
}
