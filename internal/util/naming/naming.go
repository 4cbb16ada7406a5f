package naming

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

// MaxExperimentNameLength is the portal's hard cap on experiment names.
const MaxExperimentNameLength = 16

// SuffixLength is the number of random characters appended to the name
// prefix so concurrent CI runs never collide.
const SuffixLength = 7

const suffixCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

var experimentNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]*$`)

// ExperimentName builds a unique experiment name from the configured prefix
// plus a random suffix. It fails if the prefix leaves no room for the suffix
// under the portal's length cap.
func ExperimentName(prefix string) (string, error) {
	if len(prefix)+SuffixLength > MaxExperimentNameLength {
		return "", fmt.Errorf("experiment name prefix %q too long: %d chars leaves no room for %d-char suffix within %d",
			prefix, len(prefix), SuffixLength, MaxExperimentNameLength)
	}

	suffix, err := RandomSuffix(SuffixLength)
	if err != nil {
		return "", err
	}

	name := prefix + suffix
	if err := ValidateExperimentName(name); err != nil {
		return "", err
	}

	return name, nil
}

// RandomSuffix returns n random characters drawn from [a-z0-9].
func RandomSuffix(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random suffix: %w", err)
	}

	for i, b := range buf {
		buf[i] = suffixCharset[int(b)%len(suffixCharset)]
	}

	return string(buf), nil
}

// ValidateExperimentName checks a name against the portal's constraints:
// at most 16 characters, starting with a letter, containing only letters,
// digits, and hyphens.
func ValidateExperimentName(name string) error {
	if name == "" {
		return fmt.Errorf("experiment name must not be empty")
	}
	if len(name) > MaxExperimentNameLength {
		return fmt.Errorf("experiment name %q exceeds %d characters", name, MaxExperimentNameLength)
	}
	if !experimentNameRegex.MatchString(name) {
		return fmt.Errorf("experiment name %q must start with a letter and contain only letters, digits, and hyphens", name)
	}
	return nil
}
