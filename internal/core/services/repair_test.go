package services

import (
	"encoding/json"
	"testing"
)

func TestExtractArray(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare array", `[1,2]`, `[1,2]`},
		{"leading commentary", `Here is the result: [1,2]`, `[1,2]`},
		{"trailing commentary", `[1,2] hope that helps`, `[1,2]`},
		{"both sides", `sure! ["a"] done.`, `["a"]`},
		{"unclosed array returns tail", `output: [{"a":1}`, `[{"a":1}`},
		{"no array", `I cannot do that`, ``},
		{"empty input", ``, ``},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractArray(tc.input); got != tc.want {
				t.Errorf("extractArray(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			"code fence",
			"```json\n[{\"message\":\"hi\"}]\n```",
		},
		{
			"trailing comma",
			`[{"message":"hi"},]`,
		},
		{
			"double comma",
			`[{"message":"hi"},,{"message":"yo"}]`,
		},
		{
			"missing comma between objects",
			`[{"message":"hi"} {"message":"yo"}]`,
		},
		{
			"truncated mid-string",
			`[{"message":"hi"},{"message":"yo`,
		},
		{
			"unbalanced brackets",
			`[{"message":"hi"}`,
		},
		{
			"smart quotes",
			`[{“message”:“hi”}]`,
		},
		{
			"invalid escape",
			`[{"message":"cost is \$5"}]`,
		},
		{
			"embedded control character",
			"[{\"message\":\"hi\x01there\"}]",
		},
		{
			"commentary around fenced array",
			"Sure, here you go:\n```json\n[{\"message\":\"hi\"},]\n```\nLet me know!",
		},
		{
			"truncated after escaped quote",
			`[{"message":"she said \"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repaired := repairJSON(tc.input)

			var v []map[string]any
			if err := json.Unmarshal([]byte(repaired), &v); err != nil {
				t.Fatalf("repaired output does not parse: %v\ninput:    %q\nrepaired: %q", err, tc.input, repaired)
			}
			if len(v) == 0 {
				t.Fatalf("repaired output lost all objects: %q", repaired)
			}
		})
	}
}

// Repair must be stable: applying it to already-repaired text changes
// nothing, so a repaired output parses the same however many times it
// passes through.
func TestRepairJSON_Idempotent(t *testing.T) {
	inputs := []string{
		`[{"message":"hi"},]`,
		"```json\n[{\"message\":\"hi\"}]\n```",
		`[{"message":"hi"},{"message":"yo`,
		`[{"message":"hi"} {"message":"yo"}]`,
		`[{"time":null,"speaker":"Anna","role":"User","message":"all good"}]`,
	}

	for _, input := range inputs {
		once := repairJSON(input)
		twice := repairJSON(once)
		if once != twice {
			t.Errorf("repair not idempotent for %q:\nonce:  %q\ntwice: %q", input, once, twice)
		}
	}
}

func TestRepairJSON_ValidInputUnharmed(t *testing.T) {
	input := `[{"time":"10:01","speaker":"Ravi","role":"Agent","message":"ok. since when?"}]`

	var before, after []map[string]any
	if err := json.Unmarshal([]byte(input), &before); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(repairJSON(input)), &after); err != nil {
		t.Fatalf("repair broke valid JSON: %v", err)
	}
	if len(before) != len(after) || before[0]["message"] != after[0]["message"] {
		t.Errorf("repair altered valid content: %v vs %v", before, after)
	}
}
