package serializer

// Response is the envelope of every JSON reply.
type Response struct {
	Code int    `json:"code"`
	Data any    `json:"data,omitempty"`
	Msg  string `json:"message"`
	// Error is a stable machine readable reason such as CYCLE_DETECTED.
	Error string `json:"error,omitempty"`
}

const (
	CodeParamErr     = 40001
	CodeUnauthorized = 40101
	CodeForbidden    = 40301
	CodeNotFound     = 40401
	CodeConflict     = 40901
	CodeTooLarge     = 41301
	CodeDBErr        = 50001
	CodeIntegrity    = 50002
	CodeUpstream     = 50201
	CodeUnavailable  = 50301
)

// Err builds an error envelope. A non-nil err is appended to msg.
func Err(code int, reason, msg string, err error) Response {
	if err != nil {
		if msg == "" {
			msg = err.Error()
		} else {
			msg = msg + ": " + err.Error()
		}
	}
	return Response{Code: code, Msg: msg, Error: reason}
}

func ParamErr(msg string, err error) Response {
	if msg == "" && err == nil {
		msg = "invalid parameters"
	}
	return Err(CodeParamErr, "INVALID_ARGUMENT", msg, err)
}

func DBErr(msg string, err error) Response {
	if msg == "" {
		msg = "database error"
	}
	return Err(CodeDBErr, "INTERNAL", msg, err)
}
