package document

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bizdocs/backend/internal/domain/shared"
)

// MaxSequence is the largest sequence a four-digit suffix can hold.
const MaxSequence = 9999

// maxCandidates bounds the verify step of number allocation.
const maxCandidates = 100

var numberPattern = regexp.MustCompile(`^[A-Z]{1,2}-\d{4}-\d{4}$`)

// NumberSource exposes the stored numbers to the allocator.
type NumberSource interface {
	// NumbersWithPrefix returns every stored number starting with prefix.
	NumbersWithPrefix(ctx context.Context, prefix string) ([]string, error)
	// NumberExists checks the whole document table, whatever the type.
	NumberExists(ctx context.Context, number string) (bool, error)
}

// ValidNumber reports whether s is a well-formed document number.
func ValidNumber(s string) bool {
	return numberPattern.MatchString(s)
}

// NumberPrefix returns the "PREFIX-YEAR-" head shared by every number of a series.
func NumberPrefix(prefix string, year int) string {
	return fmt.Sprintf("%s-%04d-", prefix, year)
}

// FormatNumber renders a number from its parts.
func FormatNumber(prefix string, year, sequence int) (string, error) {
	if sequence < 1 || sequence > MaxSequence {
		return "", shared.NewValidationError("sequence %d out of range for %s", sequence, NumberPrefix(prefix, year))
	}
	number := fmt.Sprintf("%s%04d", NumberPrefix(prefix, year), sequence)
	if !ValidNumber(number) {
		return "", shared.NewValidationError("invalid document number %q", number)
	}
	return number, nil
}

// ParseSequence extracts the trailing sequence of a number belonging to the given series.
func ParseSequence(number, prefix string, year int) (int, bool) {
	head := NumberPrefix(prefix, year)
	if !strings.HasPrefix(number, head) || !ValidNumber(number) {
		return 0, false
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(number, head))
	if err != nil {
		return 0, false
	}
	return seq, true
}

// NextNumber allocates the next free number of a series.
//
// The highest existing suffix is found by scanning the series, then candidates
// above it are checked against every stored number until a free one is found.
// Gaps left by deletions are never reused.
func NextNumber(ctx context.Context, source NumberSource, prefix string, year int) (string, error) {
	existing, err := source.NumbersWithPrefix(ctx, NumberPrefix(prefix, year))
	if err != nil {
		return "", fmt.Errorf("failed to scan document numbers: %w", err)
	}

	highest := 0
	for _, n := range existing {
		if seq, ok := ParseSequence(n, prefix, year); ok && seq > highest {
			highest = seq
		}
	}

	for seq := highest + 1; seq <= highest+maxCandidates; seq++ {
		candidate, err := FormatNumber(prefix, year, seq)
		if err != nil {
			return "", err
		}
		taken, err := source.NumberExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to verify document number: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", shared.NewNumberCollisionError("no free number found for series %s", NumberPrefix(prefix, year))
}
