package domain

// ErrorKind classifies a failed save.
type ErrorKind string

const (
	KindNone                    ErrorKind = ""
	KindInvalidArgument         ErrorKind = "InvalidArgument"
	KindUnsupportedFileType     ErrorKind = "UnsupportedFileType"
	KindDestinationCreateFailed ErrorKind = "DestinationCreateFailed"
	KindWriteFailed             ErrorKind = "WriteFailed"
)

// SaveOutcome is the result handed back to the caller of a save operation.
// ErrorMessage is set only when IsSuccess is false.
type SaveOutcome struct {
	IsSuccess    bool      `json:"isSuccess"`
	ErrorMessage *string   `json:"errorMessage"`
	FilePath     string    `json:"filePath,omitempty"`
	Kind         ErrorKind `json:"-"`
}

// Succeeded reports a completed write to uri.
func Succeeded(uri string) *SaveOutcome {
	return &SaveOutcome{IsSuccess: true, FilePath: uri}
}

// Skipped reports a save that was short-circuited because the entry already exists.
func Skipped() *SaveOutcome {
	return &SaveOutcome{IsSuccess: true}
}

// Failed reports a failure of the given kind.
func Failed(kind ErrorKind, msg string) *SaveOutcome {
	return &SaveOutcome{IsSuccess: false, ErrorMessage: &msg, Kind: kind}
}

// Message returns the error message or "" on success.
func (o *SaveOutcome) Message() string {
	if o == nil || o.ErrorMessage == nil {
		return ""
	}
	return *o.ErrorMessage
}

// ToMap renders the outcome the way the method channel returns it.
func (o *SaveOutcome) ToMap() map[string]any {
	m := map[string]any{
		"isSuccess":    o.IsSuccess,
		"errorMessage": nil,
	}
	if o.ErrorMessage != nil {
		m["errorMessage"] = *o.ErrorMessage
	}
	if o.FilePath != "" {
		m["filePath"] = o.FilePath
	}
	return m
}
