package domain

import "github.com/shopspring/decimal"

// ComputeCommission returns the fee owed on a gross contribution:
// ceil(gross * rate), floored at the policy minimum. The ceil rounds up to
// the smallest currency unit so the owner is never under-collected. The
// function never fails; callers are responsible for checking the fee
// against the attached amount.
func ComputeCommission(gross decimal.Decimal, policy CommissionPolicy) decimal.Decimal {
	fee := gross.Mul(policy.Rate).Ceil()
	if fee.LessThan(policy.MinimumTokens) {
		fee = policy.MinimumTokens
	}

	return fee
}
