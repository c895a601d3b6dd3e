package registry

import (
	"fmt"
	"strings"

	"github.com/aanand-mishra/blockfest-backend/internal/types"
)

// Header is the first line of every VIP allowlist file. Parse skips the
// first line without checking it.
const Header = "Name,RollNumber,WalletAddress"

// DefaultContent is written by EnsureExists when no allowlist exists yet.
const DefaultContent = Header + "\n" +
	"Pranay,02717711623,0x1234567890\n" +
	"Sidharth,02217711623,0x9876543210\n"

// delimiter is fixed; the format has no quoting or escaping.
const delimiter = ","

// SkippedRow describes a line that Parse refused to load.
// Line is 1-based and counts the header.
type SkippedRow struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
	Reason  string `json:"reason"`
}

// Key builds the composite lookup key: every part lower-cased and
// trimmed, joined with ":". Load and Lookup both go through here so the
// two can never disagree about normalisation.
func Key(name, rollNumber, walletAddress string) string {
	return normalize(name) + ":" + normalize(rollNumber) + ":" + normalize(walletAddress)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Parse turns the raw allowlist into a map keyed by Key().
//
// Rules:
//   - line 1 is the header and is always skipped
//   - blank lines are ignored silently
//   - a row must split into exactly three fields, none empty after trimming;
//     anything else is reported in the returned []SkippedRow and skipped
//   - a duplicate key overwrites the earlier row (last row wins)
//
// Stored values keep the caller-visible casing of the file, so a lookup
// for "0xaaa" returns "0xAAA" when that is what the operator wrote.
func Parse(content []byte) (map[string]types.VIPRecord, []SkippedRow) {
	entries := make(map[string]types.VIPRecord)
	var skipped []SkippedRow

	lines := strings.Split(string(content), "\n")
	for i, raw := range lines {
		if i == 0 {
			continue
		}

		row := strings.TrimSpace(raw)
		if row == "" {
			continue
		}

		fields := strings.Split(row, delimiter)
		if len(fields) != 3 {
			skipped = append(skipped, SkippedRow{
				Line:    i + 1,
				Content: row,
				Reason:  fmt.Sprintf("expected 3 fields, got %d", len(fields)),
			})
			continue
		}

		record := types.VIPRecord{
			Name:          strings.TrimSpace(fields[0]),
			RollNumber:    strings.TrimSpace(fields[1]),
			WalletAddress: strings.TrimSpace(fields[2]),
		}
		if record.Name == "" || record.RollNumber == "" || record.WalletAddress == "" {
			skipped = append(skipped, SkippedRow{
				Line:    i + 1,
				Content: row,
				Reason:  "missing values",
			})
			continue
		}

		entries[Key(record.Name, record.RollNumber, record.WalletAddress)] = record
	}

	return entries, skipped
}
