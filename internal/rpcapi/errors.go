package rpcapi

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

const (
	codeInvalidParams = -32602
	codeApplication   = -32000
)

// apiError carries a registered error's codespace and code in the JSON-RPC
// error data.
type apiError struct {
	err  error
	code int
	info ErrorInfo
}

func (e *apiError) Error() string { return e.err.Error() }

func (e *apiError) Unwrap() error { return e.err }

func (e *apiError) ErrorCode() int { return e.code }

func (e *apiError) ErrorData() interface{} { return e.info }

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	return &apiError{err: err, code: codeApplication, info: errorInfo(err)}
}

func invalidParams(err error) error {
	return &apiError{err: err, code: codeInvalidParams, info: errorInfo(err)}
}

func errorInfo(err error) ErrorInfo {
	codespace, code, _ := errorsmod.ABCIInfo(err, false)
	info := ErrorInfo{Codespace: codespace, Code: code}
	if cause := errors.Unwrap(err); cause != nil {
		cs, c, _ := errorsmod.ABCIInfo(cause, false)
		if cs != codespace || c != code {
			info.Cause = &ErrorInfo{Codespace: cs, Code: c}
		}
	}
	return info
}
