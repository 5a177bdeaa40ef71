package domain

import "testing"

func TestAccountLabel(t *testing.T) {
	regular := Account{Code: "MT-100", Kind: AccountKindRegular}
	if got := regular.Label(); got != "MT-100" {
		t.Fatalf("unexpected label %q", got)
	}

	challenge := Account{Code: "CH-200", Kind: AccountKindChallenge}
	if got := challenge.Label(); got != "CH-200 (Challenge)" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestSelectionResolve(t *testing.T) {
	regular := []Account{{ID: "r1"}, {ID: "r2"}}
	challenge := []Account{{ID: "c1"}}

	if got := SelectAll().Resolve(regular, challenge); len(got) != 3 {
		t.Fatalf("expected all 3 accounts, got %d", len(got))
	}

	got := SelectRegular("r2").Resolve(regular, challenge)
	if len(got) != 1 || got[0].ID != "r2" {
		t.Fatalf("expected r2, got %+v", got)
	}

	got = SelectChallenge("c1").Resolve(regular, challenge)
	if len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("expected c1, got %+v", got)
	}

	if got := SelectRegular("unknown").Resolve(regular, challenge); len(got) != 0 {
		t.Fatalf("expected no accounts for unknown id, got %d", len(got))
	}
}

func TestSelectionKey(t *testing.T) {
	cases := map[string]Selection{
		"all":          SelectAll(),
		"regular:r1":   SelectRegular("r1"),
		"challenge:c1": SelectChallenge("c1"),
	}
	for want, sel := range cases {
		if got := sel.Key(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}
