package main

import "github.com/latticeforge/swarm/internal/swarmerr"

// Exit codes per the CLI front-end contract (spec §6.2): 0 success, 2
// usage, 3 policy denial (bounds/trust), 4 verification failure, 5
// internal recovery failure, >=64 unexpected.
const (
	exitOK                = 0
	exitUsage             = 2
	exitPolicyDenial      = 3
	exitVerificationFail  = 4
	exitRecoveryFailure   = 5
	exitUnexpected        = 70 // sysexits.h EX_SOFTWARE, the >=64 band
)

// exitCodeFor maps a typed swarmerr.Error to the CLI's exit-code
// contract. KindTransient/KindResource reaching the CLI means the
// Recovery Manager already tried and failed to clear them, hence
// exitRecoveryFailure rather than a distinct "transient" code.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	switch swarmerr.KindOf(err) {
	case swarmerr.KindInput:
		return exitUsage
	case swarmerr.KindPolicy:
		return exitPolicyDenial
	case swarmerr.KindIntegrity:
		return exitVerificationFail
	case swarmerr.KindTransient, swarmerr.KindResource:
		return exitRecoveryFailure
	default:
		return exitUnexpected
	}
}
