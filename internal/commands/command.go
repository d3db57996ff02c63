package commands

import (
	"fmt"
	"strings"
)

type Type string

const (
	TypeAdd      Type = "add"
	TypeEdit     Type = "edit"
	TypeDone     Type = "done"
	TypeDelete   Type = "delete"
	TypeShow     Type = "show"
	TypeCategory Type = "category"
	TypeAttach   Type = "attach"
	TypeDetach   Type = "detach"
	TypeExport   Type = "export"
	TypeSave     Type = "save"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// TaskFields are the task attributes a command may set. Empty means unset.
type TaskFields struct {
	Title       string
	Description string
	DueDate     string
	DueTime     string
	Priority    string
	Category    string
	// HasDescription is true when "--" was given, even with nothing after it.
	HasDescription bool
}

type AddArgs struct {
	TaskFields
}

type EditArgs struct {
	Target string
	TaskFields
}

type DoneArgs struct {
	Target string
}

type DeleteArgs struct {
	Targets []string
}

type ShowArgs struct {
	Filter string
	Search string
}

type CategoryArgs struct {
	Action string // add or delete
	Name   string
	Color  string
}

type AttachArgs struct {
	Target string
	Path   string
}

type DetachArgs struct {
	Target     string
	Attachment string
}

type ExportArgs struct {
	Path string
}

// SaveArgs writes one attachment of Target back to a file.
type SaveArgs struct {
	Target     string
	Attachment string
	Path       string
}

type Command struct {
	Type     Type
	Raw      string
	Add      *AddArgs
	Edit     *EditArgs
	Done     *DoneArgs
	Delete   *DeleteArgs
	Show     *ShowArgs
	Category *CategoryArgs
	Attach   *AttachArgs
	Detach   *DetachArgs
	Export   *ExportArgs
	Save     *SaveArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts, err := splitArgs(raw)
	if err != nil {
		return Command{}, err
	}
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeEdit:
		return parseEdit(input, args)
	case TypeDone:
		return parseDone(input, args)
	case TypeDelete:
		return parseDelete(input, args)
	case TypeShow:
		return parseShow(input, args)
	case TypeCategory:
		return parseCategory(input, args)
	case TypeAttach:
		return parseAttach(input, args)
	case TypeDetach:
		return parseDetach(input, args)
	case TypeExport:
		return parseExport(input, args)
	case TypeSave:
		return parseSave(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	fields, err := parseFields(args)
	if err != nil {
		return Command{}, err
	}
	if fields.Title == "" {
		return Command{}, invalid("add requires a title")
	}
	if fields.DueDate == "" || fields.DueTime == "" {
		return Command{}, invalid("add requires due:<date> and at:<HH:MM>")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{TaskFields: fields}}, nil
}

func parseEdit(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("edit requires a target")
	}
	fields, err := parseFields(args[1:])
	if err != nil {
		return Command{}, err
	}
	if fields == (TaskFields{}) {
		return Command{}, invalid("edit requires at least one change")
	}
	return Command{Type: TypeEdit, Raw: raw, Edit: &EditArgs{Target: args[0], TaskFields: fields}}, nil
}

func parseDone(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("done requires exactly one target")
	}
	return Command{Type: TypeDone, Raw: raw, Done: &DoneArgs{Target: args[0]}}, nil
}

func parseDelete(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("delete requires at least one target")
	}
	return Command{Type: TypeDelete, Raw: raw, Delete: &DeleteArgs{Targets: append([]string(nil), args...)}}, nil
}

var showFilters = map[string]bool{"all": true, "pending": true, "completed": true, "today": true, "high": true}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("show requires a filter")
	}
	filter := strings.ToLower(args[0])
	if !showFilters[filter] {
		return Command{}, invalid("unknown filter %q (all, pending, completed, today, high)", args[0])
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Filter: filter, Search: strings.Join(args[1:], " ")}}, nil
}

func parseCategory(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, invalid("category requires add|delete and a name")
	}
	action := strings.ToLower(args[0])
	switch action {
	case "add":
		name := args[1:]
		color := ""
		if last := name[len(name)-1]; strings.HasPrefix(last, "#") && len(name) > 1 {
			color = last
			name = name[:len(name)-1]
		}
		return Command{Type: TypeCategory, Raw: raw, Category: &CategoryArgs{Action: action, Name: strings.Join(name, " "), Color: color}}, nil
	case "delete":
		return Command{Type: TypeCategory, Raw: raw, Category: &CategoryArgs{Action: action, Name: strings.Join(args[1:], " ")}}, nil
	default:
		return Command{}, invalid("unknown category action %q", args[0])
	}
}

func parseAttach(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalid("attach requires target and file path")
	}
	return Command{Type: TypeAttach, Raw: raw, Attach: &AttachArgs{Target: args[0], Path: args[1]}}, nil
}

func parseDetach(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalid("detach requires target and attachment")
	}
	return Command{Type: TypeDetach, Raw: raw, Detach: &DetachArgs{Target: args[0], Attachment: args[1]}}, nil
}

func parseExport(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("export requires a file path")
	}
	return Command{Type: TypeExport, Raw: raw, Export: &ExportArgs{Path: args[0]}}, nil
}

func parseSave(raw string, args []string) (Command, error) {
	if len(args) != 3 {
		return Command{}, invalid("save requires target, attachment and file path")
	}
	return Command{Type: TypeSave, Raw: raw, Save: &SaveArgs{Target: args[0], Attachment: args[1], Path: args[2]}}, nil
}

// parseFields reads key:value options. Bare words form the title and
// everything after "--" is the description.
func parseFields(args []string) (TaskFields, error) {
	var out TaskFields
	var title []string
	for i, arg := range args {
		if arg == "--" {
			out.HasDescription = true
			out.Description = strings.Join(args[i+1:], " ")
			break
		}
		key, value, ok := strings.Cut(arg, ":")
		if !ok || value == "" {
			title = append(title, arg)
			continue
		}
		switch strings.ToLower(key) {
		case "due", "date":
			out.DueDate = value
		case "at", "time":
			out.DueTime = value
		case "p", "priority":
			out.Priority = strings.ToLower(value)
		case "cat", "category":
			out.Category = value
		default:
			title = append(title, arg)
		}
	}
	out.Title = strings.TrimSpace(strings.Join(title, " "))
	return out, nil
}

// splitArgs splits on whitespace and keeps double-quoted runs together.
func splitArgs(raw string) ([]string, error) {
	var (
		out     []string
		cur     strings.Builder
		quoted  bool
		pending bool
	)
	for _, r := range raw {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case !quoted && (r == ' ' || r == '\t'):
			if pending {
				out = append(out, cur.String())
				cur.Reset()
				pending = false
			}
		default:
			cur.WriteRune(r)
			pending = true
		}
	}
	if quoted {
		return nil, invalid("unterminated quote")
	}
	if pending {
		out = append(out, cur.String())
	}
	if len(out) == 0 {
		return nil, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	return out, nil
}
