package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Action is what one input line asks for.
type Action int

const (
	ActSend Action = iota
	ActEdit
	ActDelete
	ActToggle
	ActExpand
	ActReload
	ActDismiss
	ActLogout
	ActQuit
	ActHelp
	ActNone
)

// Command is a parsed input line.
type Command struct {
	Action Action
	ID     int64
	Text   string
}

var errUsage = errors.New("usage")

// HelpText lists the commands understood by ParseCommand.
const HelpText = `Type a message and press enter to send it.
  /edit <id> <text>   replace the text of one of your messages
  /delete <id>        delete one of your messages
  /toggle             collapse or reopen the window
  /expand             switch between normal and full width
  /reload             fetch the conversation again
  /dismiss            hide the error line
  /logout             sign out
  /quit               leave`

// ParseCommand interprets one input line. Lines not starting with "/" are
// messages to send.
func ParseCommand(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Command{Action: ActNone}, nil
	}
	if !strings.HasPrefix(trimmed, "/") {
		return Command{Action: ActSend, Text: line}, nil
	}

	name, rest, _ := strings.Cut(trimmed, " ")
	rest = strings.TrimSpace(rest)
	switch name {
	case "/edit":
		idText, text, _ := strings.Cut(rest, " ")
		id, err := ParseID(idText)
		if err != nil {
			return Command{}, err
		}
		return Command{Action: ActEdit, ID: id, Text: text}, nil
	case "/delete":
		id, err := ParseID(rest)
		if err != nil {
			return Command{}, err
		}
		return Command{Action: ActDelete, ID: id}, nil
	case "/toggle":
		return Command{Action: ActToggle}, nil
	case "/expand":
		return Command{Action: ActExpand}, nil
	case "/reload":
		return Command{Action: ActReload}, nil
	case "/dismiss":
		return Command{Action: ActDismiss}, nil
	case "/logout":
		return Command{Action: ActLogout}, nil
	case "/quit", "/exit":
		return Command{Action: ActQuit}, nil
	case "/help":
		return Command{Action: ActHelp}, nil
	default:
		return Command{}, fmt.Errorf("%w: unknown command %s", errUsage, name)
	}
}

// ParseID reads a message id, with or without a leading "#".
func ParseID(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: expected a message id, got %q", errUsage, s)
	}
	return id, nil
}
