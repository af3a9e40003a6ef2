package core

// error_messages.go maps errors to messages shown in alerts.
//
// Each message carries a code users can quote when asking for help:
//
//	VAL001  Please fill in all fields             (ValidationError with missing fields)
//	VAL002  No order data to save                 (commit with no pending items)
//	VAL003  Other input errors                    (ValidationError message shown as is)
//	ORD001  That item no longer exists            (IndexError)
//	FILE001 File exceeds the upload size limit
//	FILE002 Only Excel and CSV files are allowed
//	FILE003 The file could not be read as a spreadsheet
//	FILE004 No file was selected
//	FILE005 The uploaded file is empty
//	STORE001 Your changes could not be saved      (ErrPersistence)
//	UPL001  Upload not found
//	UPL002  Too many uploads in progress
//	UPL003  Request cancelled
//	UPL004  Request timed out
//	UPL005  File was removed before it finished parsing
//	RATE001 Too many requests
//	ERR000  An unexpected error occurred
//
// Sentinel errors are checked first with errors.Is. Errors that lost their
// sentinel, such as ones rebuilt from a string, fall back to case-insensitive
// substring patterns.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgMissingFields = UserMessage{
		Message: "Please fill in all fields",
		Action:  "Enter a customer name, pick an item and set a quantity",
		Code:    "VAL001",
	}
	msgNoOrderData = UserMessage{
		Message: "No order data to save",
		Action:  "Add at least one item before submitting",
		Code:    "VAL002",
	}
	msgBadIndex = UserMessage{
		Message: "That item no longer exists",
		Action:  "Reload the page and try again",
		Code:    "ORD001",
	}
	msgTooLarge = UserMessage{
		Message: "File exceeds the upload size limit",
		Action:  "Split the spreadsheet into smaller files",
		Code:    "FILE001",
	}
	msgUnsupported = UserMessage{
		Message: UnsupportedTypeMessage,
		Action:  "Save the file as .xlsx, .xls or .csv",
		Code:    "FILE002",
	}
	msgUnreadable = UserMessage{
		Message: "The file could not be read as a spreadsheet",
		Action:  "Open the file in Excel and save it again",
		Code:    "FILE003",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Choose one or more files to upload",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a spreadsheet with a header row and data",
		Code:    "FILE005",
	}
	msgPersistence = UserMessage{
		Message: "Your changes could not be saved",
		Action:  "Please try again in a few moments",
		Code:    "STORE001",
	}
	msgUploadNotFound = UserMessage{
		Message: "Upload not found",
		Action:  "The upload may have expired. Please upload the file again",
		Code:    "UPL001",
	}
	msgBusy = UserMessage{
		Message: "Too many uploads in progress",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL003",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL004",
	}
	msgDiscarded = UserMessage{
		Message: "The file was removed before it finished loading",
		Action:  "Upload the file again if you still need it",
		Code:    "UPL005",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// First match wins; keep specific patterns above general ones.
var errorPatterns = []errorPattern{
	{"please fill in all fields", msgMissingFields},
	{"no order data to save", msgNoOrderData},
	{"index out of range", msgBadIndex},
	{"file too large", msgTooLarge},
	{"request body too large", msgTooLarge},
	{"unsupported file type", msgUnsupported},
	{"unreadable spreadsheet", msgUnreadable},
	{"no file provided", msgNoFile},
	{"empty file", msgEmptyFile},
	{"persistence failure", msgPersistence},
	{"upload not found", msgUploadNotFound},
	{"too many uploads", msgBusy},
	{"upload discarded", msgDiscarded},
	{"context canceled", msgCancelled},
	{"context deadline exceeded", msgTimeout},
	{"rate limit", msgRateLimited},
}

// MapError converts an error to a user-friendly message.
// A nil error yields the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		switch {
		case len(ve.Fields) == 0 && ve.Message == noOrderData:
			return msgNoOrderData
		case len(ve.Fields) > 0 || ve.Message == missingFields || ve.Message == "":
			return msgMissingFields
		}
		return UserMessage{
			Message: ve.Message,
			Action:  "Check the input and try again.",
			Code:    "VAL003",
		}
	case errors.Is(err, ErrIndex):
		return msgBadIndex
	case errors.Is(err, ErrFileTooLarge):
		return msgTooLarge
	case errors.Is(err, ErrUnsupportedFileType):
		return msgUnsupported
	case errors.Is(err, ErrUnreadableFile):
		return msgUnreadable
	case errors.Is(err, ErrNoFile):
		return msgNoFile
	case errors.Is(err, ErrEmptyFile):
		return msgEmptyFile
	case errors.Is(err, ErrPersistence):
		return msgPersistence
	case errors.Is(err, ErrUploadNotFound):
		return msgUploadNotFound
	case errors.Is(err, ErrUploadDiscarded):
		return msgDiscarded
	case errors.Is(err, ErrTooManyUploads):
		return msgBusy
	case errors.Is(err, context.Canceled):
		return msgCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError returns a formatted string suitable for display.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than the default.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps an error with its user-friendly message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err, returning nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
