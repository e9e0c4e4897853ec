// internal/notify/contacts.go
package notify

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// LoadContacts reads the applicant contact CSV. Expected header:
// application_id,email,phone
// Rows without an application id are skipped.
func LoadContacts(path string) (map[string]Recipient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open contacts: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse contacts: %w", err)
	}
	if len(rows) == 0 {
		return map[string]Recipient{}, nil
	}

	cols := map[string]int{}
	for i, name := range rows[0] {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"application_id", "email", "phone"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("contacts missing column %q", required)
		}
	}

	contacts := make(map[string]Recipient, len(rows)-1)
	for _, row := range rows[1:] {
		id := strings.TrimSpace(row[cols["application_id"]])
		if id == "" {
			continue
		}
		contacts[id] = Recipient{
			Email: strings.TrimSpace(row[cols["email"]]),
			Phone: strings.TrimSpace(row[cols["phone"]]),
		}
	}

	return contacts, nil
}
