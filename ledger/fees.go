// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/ogprotocol/ogpnode/amount"
	"github.com/ogprotocol/ogpnode/chaincfg"
	"github.com/ogprotocol/ogpnode/ledgertypes"
)

// computeFee returns the fee a fragment owes: the linear base fee over its
// input/output count, plus, for a fragment carrying a certificate, the
// per-certificate-kind override the settings declare for its kind or,
// absent one, the flat LinearFeeSet.Certificate fee.
func computeFee(settings *chaincfg.ConfigParams, at ledgertypes.AuthenticatedTransaction) (amount.Value, error) {
	ioCount := uint64(len(at.Transaction.Inputs) + len(at.Transaction.Outputs))
	fee := uint64(settings.LinearFeeSet.Constant) + uint64(settings.LinearFeeSet.Coefficient)*ioCount

	if at.Certificate != nil {
		certFee, ok := certificateFeeOverride(settings, at.Certificate.Kind)
		if ok {
			fee += uint64(certFee)
		} else {
			fee += uint64(settings.LinearFeeSet.Certificate)
		}
	}
	return amount.Value(fee), nil
}

// certificateFeeOverride looks up settings.PerCertFee for the chaincfg-
// level fee-kind matching cert's ledgertypes-level kind; the two enums are
// distinct (chaincfg only distinguishes the three fee-bearing kinds it can
// override) so this maps between them explicitly rather than assuming
// identical tag values.
func certificateFeeOverride(settings *chaincfg.ConfigParams, kind ledgertypes.CertificateKind) (amount.Value, bool) {
	var feeKind chaincfg.FeeCertKind
	switch kind {
	case ledgertypes.CertPoolRegistration:
		feeKind = chaincfg.CertPoolRegistration
	case ledgertypes.CertStakeDelegation:
		feeKind = chaincfg.CertStakeDelegation
	case ledgertypes.CertOwnerStakeDelegation:
		feeKind = chaincfg.CertOwnerStakeDelegation
	default:
		return 0, false
	}
	return settings.PerCertFee.Fee(feeKind)
}
