package tables

import "testing"

func TestSnakeCase(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"SwapEvent", "swap_event"},
		{"swapEvent", "swap_event"},
		{"swap_event", "swap_event"},
		{"Token-2022", "token_2022"},
		{"AMMPool", "amm_pool"},
		{"", ""},
	}
	for _, c := range cases {
		got := SnakeCase(c.in)
		if got != c.want {
			t.Errorf("SnakeCase(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSnakeCaseIdempotent(t *testing.T) {
	inputs := []string{"SwapEvent", "swap_event", "Token-2022", "AMMPool", "already_snake"}
	for _, in := range inputs {
		once := SnakeCase(in)
		twice := SnakeCase(once)
		if once != twice {
			t.Errorf("SnakeCase not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestTableName(t *testing.T) {
	got := TableName("MyDexProgram", "SwapEvent")
	want := "my_dex_program_swap_event"
	if got != want {
		t.Errorf("TableName() = %q, want %q", got, want)
	}
}

func TestQuote(t *testing.T) {
	got := Quote(`weird"name`)
	want := `"weird""name"`
	if got != want {
		t.Errorf("Quote() = %q, want %q", got, want)
	}
}
