package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add      func(AddArgs) (Result, error)
	Edit     func(EditArgs) (Result, error)
	Done     func(DoneArgs) (Result, error)
	Delete   func(DeleteArgs) (Result, error)
	Show     func(ShowArgs) (Result, error)
	Category func(CategoryArgs) (Result, error)
	Attach   func(AttachArgs) (Result, error)
	Detach   func(DetachArgs) (Result, error)
	Export   func(ExportArgs) (Result, error)
	Save     func(SaveArgs) (Result, error)
}

func missing(name string) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: name + " handler not configured"}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing("add")
		}
		return handlers.Add(*cmd.Add)
	case TypeEdit:
		if handlers.Edit == nil {
			return Result{}, missing("edit")
		}
		return handlers.Edit(*cmd.Edit)
	case TypeDone:
		if handlers.Done == nil {
			return Result{}, missing("done")
		}
		return handlers.Done(*cmd.Done)
	case TypeDelete:
		if handlers.Delete == nil {
			return Result{}, missing("delete")
		}
		return handlers.Delete(*cmd.Delete)
	case TypeShow:
		if handlers.Show == nil {
			return Result{}, missing("show")
		}
		return handlers.Show(*cmd.Show)
	case TypeCategory:
		if handlers.Category == nil {
			return Result{}, missing("category")
		}
		return handlers.Category(*cmd.Category)
	case TypeAttach:
		if handlers.Attach == nil {
			return Result{}, missing("attach")
		}
		return handlers.Attach(*cmd.Attach)
	case TypeDetach:
		if handlers.Detach == nil {
			return Result{}, missing("detach")
		}
		return handlers.Detach(*cmd.Detach)
	case TypeExport:
		if handlers.Export == nil {
			return Result{}, missing("export")
		}
		return handlers.Export(*cmd.Export)
	case TypeSave:
		if handlers.Save == nil {
			return Result{}, missing("save")
		}
		return handlers.Save(*cmd.Save)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
