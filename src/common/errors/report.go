package errors

// Report is the machine-readable form of a failure, emitted when the CLI
// runs with structured output.
type Report struct {
	// Error contains the error code (domain.code format)
	Error string `json:"error" yaml:"error"`

	// Message contains a human-readable error message
	Message string `json:"message" yaml:"message"`

	// ExitCode is the status the process terminates with
	ExitCode int `json:"exit_code" yaml:"exit_code"`

	// Cause holds the wrapped error text, if any
	Cause string `json:"cause,omitempty" yaml:"cause,omitempty"`
}

// ToReport converts an Error to a Report
func (e *Error) ToReport() Report {
	r := Report{
		Error:    string(e.Domain) + "." + string(e.Code),
		Message:  e.Message,
		ExitCode: e.ExitCode,
	}
	if e.cause != nil {
		r.Cause = e.cause.Error()
	}
	return r
}

// NewReport creates a Report from any error.
// Errors outside this package are reported as internal errors.
func NewReport(err error) Report {
	var e *Error
	if As(err, &e) {
		return e.ToReport()
	}
	return Report{
		Error:    string(DomainInternal) + "." + string(CodeInternal),
		Message:  err.Error(),
		ExitCode: ExitGeneric,
	}
}
