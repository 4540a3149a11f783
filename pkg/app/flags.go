package app

import (
	"github.com/spf13/pflag"
)

// NamedFlagSets groups flag sets by section name, preserving the order the
// sections were requested in so usage output is stable.
type NamedFlagSets struct {
	// Order is the order in which flag sets are printed.
	Order []string

	// FlagSets maps section name to flag set.
	FlagSets map[string]*pflag.FlagSet
}

// FlagSet returns the flag set for the given section, creating it on first
// use.
func (nfs *NamedFlagSets) FlagSet(name string) *pflag.FlagSet {
	if nfs.FlagSets == nil {
		nfs.FlagSets = map[string]*pflag.FlagSet{}
	}
	if _, ok := nfs.FlagSets[name]; !ok {
		nfs.FlagSets[name] = pflag.NewFlagSet(name, pflag.ExitOnError)
		nfs.Order = append(nfs.Order, name)
	}
	return nfs.FlagSets[name]
}
