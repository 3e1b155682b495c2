package core

// Envelope status values. Every JSON body carries one of them under "status".
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// EnvelopeStatus maps an HTTP status code to the envelope status.
func EnvelopeStatus(code int) string {
	switch {
	case code >= 500:
		return StatusError
	case code >= 400:
		return StatusFail
	default:
		return StatusSuccess
	}
}
