package commands

import (
	"errors"
	"testing"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add pay rent due:2026-02-10 at:09:00", TypeAdd},
		{"edit 2 at:10:30", TypeEdit},
		{"done .", TypeDone},
		{"delete 1 3", TypeDelete},
		{"show today", TypeShow},
		{"category add Errands #FFB6B9", TypeCategory},
		{"attach . ./notes.txt", TypeAttach},
		{"detach . 1", TypeDetach},
		{"export tasks.json", TypeExport},
		{"save . 1 ./notes.txt", TypeSave},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseAddFields(t *testing.T) {
	cmd, err := Parse(`/add "Team standup" due:2026-02-09 at:09:30 p:HIGH cat:work -- daily sync, bring notes`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := cmd.Add.TaskFields
	want := TaskFields{
		Title:          "Team standup",
		Description:    "daily sync, bring notes",
		DueDate:        "2026-02-09",
		DueTime:        "09:30",
		Priority:       "high",
		Category:       "work",
		HasDescription: true,
	}
	if got != want {
		t.Fatalf("unexpected fields:\n got  %+v\n want %+v", got, want)
	}
}

func TestParseAddRequiresDue(t *testing.T) {
	for _, in := range []string{"add", "add title only", "add x due:2026-02-09"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument, got %v", in, err)
		}
	}
}

func TestParseEdit(t *testing.T) {
	cmd, err := Parse("edit 2 New title at:10:30")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Edit.Target != "2" || cmd.Edit.Title != "New title" || cmd.Edit.DueTime != "10:30" || cmd.Edit.DueDate != "" {
		t.Fatalf("unexpected edit args: %+v", cmd.Edit)
	}

	if _, err := Parse("edit 2"); err == nil {
		t.Fatal("expected error for edit without changes")
	}

	cmd, err = Parse("edit 2 --")
	if err != nil {
		t.Fatalf("clearing description should parse: %v", err)
	}
	if !cmd.Edit.HasDescription || cmd.Edit.Description != "" {
		t.Fatalf("unexpected description edit: %+v", cmd.Edit)
	}
}

func TestParseShowAndCategory(t *testing.T) {
	cmd, err := Parse("show pending weekly report")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Show.Filter != "pending" || cmd.Show.Search != "weekly report" {
		t.Fatalf("unexpected show args: %+v", cmd.Show)
	}
	if _, err := Parse("show later"); err == nil {
		t.Fatal("expected unknown filter error")
	}

	cmd, err = Parse("category add Side Project #A8E6CF")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Category.Name != "Side Project" || cmd.Category.Color != "#A8E6CF" {
		t.Fatalf("unexpected category args: %+v", cmd.Category)
	}
	if _, err := Parse("category rename x"); err == nil {
		t.Fatal("expected unknown action error")
	}
}

func TestParseUnterminatedQuote(t *testing.T) {
	if _, err := Parse(`add "broken due:2026-02-09 at:09:00`); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/done 3")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Done: func(a DoneArgs) (Result, error) {
			called = true
			if a.Target != "3" {
				t.Fatalf("unexpected target: %q", a.Target)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("show all")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}

func TestParseSave(t *testing.T) {
	cmd, err := Parse(`save 2 att-1 "out dir/notes.txt"`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := SaveArgs{Target: "2", Attachment: "att-1", Path: "out dir/notes.txt"}
	if *cmd.Save != want {
		t.Fatalf("unexpected args %+v", *cmd.Save)
	}
	for _, in := range []string{"save", "save . 1"} {
		var ce *CommandError
		if _, err := Parse(in); !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument, got %v", in, err)
		}
	}
}

func TestExecuteSaveWithoutHandler(t *testing.T) {
	cmd, err := Parse("save . 1 out.txt")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	var ce *CommandError
	if _, err := Execute(cmd, Handlers{}); !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler, got %v", err)
	}
}
