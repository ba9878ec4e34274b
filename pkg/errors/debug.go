package errors

import stdErrors "errors"

// DumpInfo flattens an error chain for structured logging.
type DumpInfo struct {
	Code       Code
	TopMessage string
	Chain      []string
}

// Dump walks the chain and collects every message plus the typed code, if any.
func Dump(err error) DumpInfo {
	info := DumpInfo{Code: CodeInternal}
	if err == nil {
		return info
	}

	info.TopMessage = err.Error()
	if typed := As(err); typed != nil {
		info.Code = typed.Code()
	}

	for current := err; current != nil; current = stdErrors.Unwrap(current) {
		info.Chain = append(info.Chain, current.Error())
	}
	return info
}
