package orchestrator

import (
	"strings"
	"testing"
)

func TestParseSingleCommand(t *testing.T) {
	content := "Logging that now.\n\n```command\n" +
		`{"resource": "tool_data", "operation": "create", "params": {"tool_instance_id": "t1"}}` +
		"\n```\n\nDone."

	cmds, errs := parseCommands(content)
	if len(errs) != 0 {
		t.Fatal(errs)
	}
	if len(cmds) != 1 {
		t.Fatalf("got %d commands", len(cmds))
	}
	if cmds[0].Name() != "tool_data.create" {
		t.Fatalf("got %s", cmds[0].Name())
	}
	if cmds[0].Params["tool_instance_id"] != "t1" {
		t.Fatalf("params %v", cmds[0].Params)
	}
}

func TestParseCommandArray(t *testing.T) {
	content := "```command\n" +
		`[{"resource": "zones", "operation": "create", "params": {"name": "Health"}},
		  {"resource": "zones", "operation": "list"}]` +
		"\n```"

	cmds, errs := parseCommands(content)
	if len(errs) != 0 {
		t.Fatal(errs)
	}
	if len(cmds) != 2 {
		t.Fatalf("got %d commands", len(cmds))
	}
	// absent params default to an empty map, never nil
	if cmds[1].Params == nil {
		t.Fatal("nil params")
	}
}

func TestParseMultipleBlocks(t *testing.T) {
	content := "```command\n" + `{"resource": "zones", "operation": "list"}` + "\n```\n" +
		"between\n" +
		"```command\n" + `{"resource": "tools", "operation": "list"}` + "\n```"

	cmds, errs := parseCommands(content)
	if len(errs) != 0 {
		t.Fatal(errs)
	}
	if len(cmds) != 2 || cmds[0].Resource != "zones" || cmds[1].Resource != "tools" {
		t.Fatalf("got %+v", cmds)
	}
}

func TestParseMalformedBlocks(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad json", "```command\n{not json}\n```"},
		{"missing operation", "```command\n" + `{"resource": "zones"}` + "\n```"},
		{"empty", "```command\n\n```"},
		{"unterminated", "```command\n{\"resource\": \"zones\", \"operation\": \"list\"}"},
	}
	for _, tc := range cases {
		cmds, errs := parseCommands(tc.content)
		if len(errs) != 1 || len(cmds) != 0 {
			t.Errorf("%s: cmds=%v errs=%v", tc.name, cmds, errs)
		}
	}
}

func TestParseMalformedBlockDoesNotEatLaterBlocks(t *testing.T) {
	content := "```command\n{bad}\n```\n```command\n" +
		`{"resource": "zones", "operation": "list"}` + "\n```"
	cmds, errs := parseCommands(content)
	if len(errs) != 1 || len(cmds) != 1 {
		t.Fatalf("cmds=%v errs=%v", cmds, errs)
	}
}

func TestStripCommandBlocks(t *testing.T) {
	content := "Recorded.\n```command\n" + `{"resource": "zones", "operation": "list"}` + "\n```\nAnything else?"
	out := stripCommandBlocks(content)
	if strings.Contains(out, "resource") || strings.Contains(out, "```") {
		t.Fatalf("fence survived: %q", out)
	}
	if !strings.Contains(out, "Recorded.") || !strings.Contains(out, "Anything else?") {
		t.Fatalf("reply text lost: %q", out)
	}
}

func TestStripCommandBlocksNoCommands(t *testing.T) {
	if out := stripCommandBlocks("just words"); out != "just words" {
		t.Fatalf("got %q", out)
	}
}
