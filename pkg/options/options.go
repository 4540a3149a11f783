// Package options defines reusable flag-backed configuration blocks shared
// by the project's commands. Each block knows its defaults, its flags, and
// how to validate itself.
package options

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every configuration block.
type IOptions interface {
	// Validate checks the option values and collects every problem found.
	Validate() []error

	// AddFlags binds the options to a flag set.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// ValidateAddress checks a host:port bind address.
func ValidateAddress(addr string) error {
	if _, portStr, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%q is not a valid address: %w", addr, err)
	} else if port, err := strconv.Atoi(portStr); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%q is not a valid address: port must be between 1 and 65535", addr)
	}

	return nil
}
