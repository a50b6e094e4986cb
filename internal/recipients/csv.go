// Package recipients produces recipient lists from CSV files and manual
// entries.
package recipients

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
	"github.com/ligun0805/airdrop-engine/internal/networks"
)

// Header is the column layout of import files and the template.
var Header = []string{"wallet_address", "amount", "token_type"}

const TemplateFileName = "airdrop_template.csv"

// Issue is a row that was excluded from the list.
type Issue struct {
	Line int
	Raw  string
	Err  error
}

func (i Issue) Error() string { return fmt.Sprintf("line %d: %v", i.Line, i.Err) }

func (i Issue) Unwrap() error { return i.Err }

// ImportResult is what a CSV import yields. Skipped counts rows without
// an address or amount, which are dropped silently.
type ImportResult struct {
	Recipients []airdropcore.Recipient
	Skipped    int
	Issues     []Issue
}

type columns struct {
	address, amount, tokenType int
}

var positional = columns{address: 0, amount: 1, tokenType: 2}

// ParseCSV reads recipients. The delimiter (',' or ';') is taken from the
// first non-empty line; a header row naming wallet_address is used to map
// columns, otherwise columns are positional. Rows missing token_type get
// def. The error is non-nil only when the input itself cannot be read.
func ParseCSV(r io.Reader, def airdropcore.TokenType) (ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comma = detectDelimiter(data)

	res := ImportResult{Recipients: []airdropcore.Recipient{}}
	cols := positional
	first := true
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("parse csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if blank(row) {
			continue
		}
		if first {
			first = false
			if c, ok := headerColumns(row); ok {
				cols = c
				continue
			}
		}

		address, amount, tokenType := field(row, cols.address), field(row, cols.amount), field(row, cols.tokenType)
		if address == "" || amount == "" {
			res.Skipped++
			continue
		}
		rc, err := airdropcore.NewRecipient(address, amount, tokenType, def, airdropcore.SourceCSV)
		if err != nil {
			res.Issues = append(res.Issues, Issue{Line: line, Raw: strings.Join(row, string(reader.Comma)), Err: err})
			continue
		}
		rc.Line = line
		res.Recipients = append(res.Recipients, rc)
	}
	return res, nil
}

func detectDelimiter(data []byte) rune {
	for _, l := range strings.Split(string(data), "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if strings.Contains(l, ";") && !strings.Contains(l, ",") {
			return ';'
		}
		break
	}
	return ','
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func headerColumns(row []string) (columns, bool) {
	c := columns{address: -1, amount: -1, tokenType: -1}
	for i, name := range row {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "wallet_address", "address", "wallet":
			c.address = i
		case "amount":
			c.amount = i
		case "token_type", "tokentype", "type":
			c.tokenType = i
		}
	}
	if c.address < 0 || c.amount < 0 {
		return positional, false
	}
	return c, true
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// DefaultTokenType is the token type rows get when they name none.
func DefaultTokenType(n networks.Network) airdropcore.TokenType {
	t, err := airdropcore.ParseTokenType(n.PrimaryType(), airdropcore.TokenNative)
	if err != nil {
		return airdropcore.TokenNative
	}
	return t
}

// Example rows of the template.
const (
	exampleAddressA = "0x742d35cc6634c0532925a3b844bc454e4438f44e"
	exampleAddressB = "0x123d35cc8545eb5c8c5b0cb9876543210fedcba0"
)

// WriteTemplate writes the header and two example rows. The first row uses
// the network's primary token type.
func WriteTemplate(w io.Writer, n networks.Network) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		Header,
		{exampleAddressA, "100", string(DefaultTokenType(n))},
		{exampleAddressB, "50", string(airdropcore.TokenOPN)},
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}
