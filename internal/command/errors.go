package command

import (
	"errors"
	"fmt"
)

// Structural errors: the wire value is not shaped like a command at all.
var (
	ErrNotAnArray           = errors.New("Command must be an array of bulk strings")
	ErrEmptyCommand         = errors.New("Empty command")
	ErrCommandNotBulkString = errors.New("Command name must be a bulk string")
)

// UnknownCommandError reports a verb outside the supported set
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command `%s`", e.Name)
}

// WrongArgCountError reports a verb invoked with the wrong arity
type WrongArgCountError struct {
	Command  string
	Expected string
}

func (e *WrongArgCountError) Error() string {
	return fmt.Sprintf("wrong number of arguments for '%s' command. Expected %s", e.Command, e.Expected)
}

// InvalidArgumentError reports an argument of the wrong type or with an
// unusable value
type InvalidArgumentError struct {
	Command string
	Reason  string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument for '%s' command: %s", e.Command, e.Reason)
}
