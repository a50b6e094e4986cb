package recipients

import (
	"fmt"
	"strings"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
)

// ParseManual reads "address:amount[:token_type]".
func ParseManual(entry string, def airdropcore.TokenType) (airdropcore.Recipient, error) {
	parts := strings.Split(strings.TrimSpace(entry), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return airdropcore.Recipient{}, airdropcore.Errorf(airdropcore.KindInputValidation,
			"recipient %q: want address:amount[:token_type]", entry)
	}
	var tokenType string
	if len(parts) == 3 {
		tokenType = parts[2]
	}
	return airdropcore.NewRecipient(parts[0], parts[1], tokenType, def, airdropcore.SourceManual)
}

// List is an ordered recipient list fed by manual entries and CSV imports.
// Duplicates are kept; each row is paid separately.
type List struct {
	items []airdropcore.Recipient
}

// Add validates and appends one recipient.
func (l *List) Add(r airdropcore.Recipient) error {
	if err := airdropcore.ValidateRecipient(r); err != nil {
		return airdropcore.NewError(airdropcore.KindInputValidation, err)
	}
	l.items = append(l.items, r)
	return nil
}

// AddManual parses entry and appends it.
func (l *List) AddManual(entry string, def airdropcore.TokenType) error {
	r, err := ParseManual(entry, def)
	if err != nil {
		return err
	}
	l.items = append(l.items, r)
	return nil
}

// Import appends the recipients of a CSV import.
func (l *List) Import(res ImportResult) {
	l.items = append(l.items, res.Recipients...)
}

// Remove drops the i-th recipient.
func (l *List) Remove(i int) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("no recipient at %d (list has %d)", i, len(l.items))
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return nil
}

func (l *List) Len() int { return len(l.items) }

// Recipients returns a copy of the list in insertion order.
func (l *List) Recipients() []airdropcore.Recipient {
	return append([]airdropcore.Recipient(nil), l.items...)
}

// Summary counts recipients per token type.
func (l *List) Summary() map[airdropcore.TokenType]int {
	out := map[airdropcore.TokenType]int{}
	for _, r := range l.items {
		out[r.TokenType]++
	}
	return out
}
