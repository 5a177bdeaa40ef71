package domain

type AccountKind string

const (
	AccountKindRegular   AccountKind = "regular"
	AccountKindChallenge AccountKind = "challenge"
)

// Account is a trading account owned by the backend ledger. The local copy is
// read-only; balances and status are authoritative on the backend side.
type Account struct {
	ID      string
	Code    string
	Kind    AccountKind
	Balance float64
	Status  string
}

// Label is the display name attached to records fetched for this account.
func (a Account) Label() string {
	if a.Kind == AccountKindChallenge {
		return a.Code + " (Challenge)"
	}
	return a.Code
}

type SelectionScope string

const (
	SelectionScopeAll       SelectionScope = "all"
	SelectionScopeRegular   SelectionScope = "regular"
	SelectionScopeChallenge SelectionScope = "challenge"
)

// Selection is the single logical account filter applied before every
// aggregation fetch. It carries an explicit scope discriminant instead of a
// string-prefixed account id.
type Selection struct {
	Scope     SelectionScope
	AccountID string
}

func SelectAll() Selection {
	return Selection{Scope: SelectionScopeAll}
}

func SelectRegular(accountID string) Selection {
	return Selection{Scope: SelectionScopeRegular, AccountID: accountID}
}

func SelectChallenge(accountID string) Selection {
	return Selection{Scope: SelectionScopeChallenge, AccountID: accountID}
}

// Key returns a stable identifier for the selection, usable as a cache key.
func (s Selection) Key() string {
	switch s.Scope {
	case SelectionScopeRegular:
		return "regular:" + s.AccountID
	case SelectionScopeChallenge:
		return "challenge:" + s.AccountID
	default:
		return "all"
	}
}

// Resolve maps the selection onto the concrete accounts to query. "all"
// yields every regular and every challenge account; a scoped selection
// yields exactly the matching account, or nothing if it is unknown.
func (s Selection) Resolve(regular, challenge []Account) []Account {
	switch s.Scope {
	case SelectionScopeChallenge:
		for _, a := range challenge {
			if a.ID == s.AccountID {
				return []Account{a}
			}
		}
		return nil
	case SelectionScopeRegular:
		for _, a := range regular {
			if a.ID == s.AccountID {
				return []Account{a}
			}
		}
		return nil
	default:
		out := make([]Account, 0, len(regular)+len(challenge))
		out = append(out, regular...)
		out = append(out, challenge...)
		return out
	}
}
