package registry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// BankProfile is one row of the seed bank registry.
type BankProfile struct {
	BankID    string `json:"bank_id"`
	Name      string `json:"name"`
	Country   string `json:"country"`
	Regulator string `json:"regulator"`
}

// LoadSeedBanks reads the reference registry CSV
// (bank_id,name,country,regulator with a header row).
func LoadSeedBanks(path string) ([]BankProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seed bank registry not found at %s: %w", path, err)
	}
	defer f.Close()
	return ReadSeedBanks(f)
}

// ReadSeedBanks parses the registry CSV from an open reader.
func ReadSeedBanks(r io.Reader) ([]BankProfile, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read bank registry header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.ToLower(strings.TrimPrefix(name, "\uFEFF")))] = i
	}
	for _, required := range []string{"bank_id", "name", "country", "regulator"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("bank registry is missing column %q", required)
		}
	}

	var banks []BankProfile
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read bank registry row: %w", err)
		}
		banks = append(banks, BankProfile{
			BankID:    strings.TrimSpace(row[idx["bank_id"]]),
			Name:      strings.TrimSpace(row[idx["name"]]),
			Country:   strings.TrimSpace(row[idx["country"]]),
			Regulator: strings.TrimSpace(row[idx["regulator"]]),
		})
	}
	return banks, nil
}

// BankLookup maps name and id slugs onto canonical bank ids. Both forms are
// registered so a source may declare either the legal name or the id itself.
func BankLookup(banks []BankProfile) map[string]string {
	lookup := make(map[string]string, len(banks)*2)
	for _, bank := range banks {
		lookup[Slugify(bank.Name)] = bank.BankID
		lookup[Slugify(bank.BankID)] = bank.BankID
	}
	return lookup
}
