package pluribus

import (
	"errors"

	"github.com/nanoncore/nano-virtualwire/drivers/cli"
	"github.com/nanoncore/nano-virtualwire/types"
)

// ErrorCode is a normalized code for Pluribus command failures
type ErrorCode string

const (
	ErrCommand           ErrorCode = "COMMAND_ERROR"
	ErrPortConflict      ErrorCode = "PORT_CONFLICT"
	ErrAssociationExists ErrorCode = "ASSOCIATION_EXISTS"
	ErrAssociationAbsent ErrorCode = "ASSOCIATION_NOT_FOUND"
	ErrSession           ErrorCode = "SESSION"
	ErrUnknown           ErrorCode = "UNKNOWN"
)

// Device error labels
const (
	LabelCommandError     = "Command error"
	LabelPortConflict     = "Port conflict"
	LabelAssociationExist = "Port association already exists"
	LabelAssociationGone  = "Unable to find port-association to delete"
)

var labelCodes = map[string]ErrorCode{
	LabelCommandError:     ErrCommand,
	LabelPortConflict:     ErrPortConflict,
	LabelAssociationExist: ErrAssociationExists,
	LabelAssociationGone:  ErrAssociationAbsent,
}

// genericErrorMap is shared by modes and non-mapping templates
var genericErrorMap = cli.NewErrorMap(
	[2]string{`[Ee]rror:`, LabelCommandError},
)

// mappingErrorMap keeps the device's declaration order: the generic
// pattern comes first and shadows the specific ones when both match.
var mappingErrorMap = cli.NewErrorMap(
	[2]string{`[Ee]rror:`, LabelCommandError},
	[2]string{`[Cc]onflict`, LabelPortConflict},
	[2]string{`[Pp]ort\s[Aa]ssoc\w*ation\s.+\salready\sexists`, LabelAssociationExist},
	[2]string{`[Uu]nable to find port-association to delete`, LabelAssociationGone},
)

// GetErrorCode classifies an error returned by the driver
func GetErrorCode(err error) ErrorCode {
	var ce *types.CommandError
	if errors.As(err, &ce) {
		if code, ok := labelCodes[ce.Label]; ok {
			return code
		}
		return ErrCommand
	}
	if types.IsSessionError(err) {
		return ErrSession
	}
	return ErrUnknown
}

