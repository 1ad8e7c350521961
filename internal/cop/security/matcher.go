package security

import (
	"rbsec/internal/cop"
)

const (
	openMethod   = "open"
	kernelModule = "Kernel"
)

// matches reports whether site calls Kernel#open: "open" with no receiver,
// or with exactly Kernel (also written ::Kernel) as the receiver.
func matches(site *cop.CallSite) bool {
	if site.Method != openMethod || site.NameSpan.Empty() {
		return false
	}
	switch site.Receiver.Kind {
	case cop.ReceiverNone:
		return true
	case cop.ReceiverConst:
		return site.Receiver.Is(kernelModule)
	}
	return false
}
