package ledger

import "github.com/shopspring/decimal"

// FeeSchedule is the payment gateway charge applied to wallet top-ups:
// Rate * gross below Threshold, Rate * gross + Surcharge from Threshold upwards.
type FeeSchedule struct {
	Rate      decimal.Decimal
	Threshold decimal.Decimal
	Surcharge decimal.Decimal
}

func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		Rate:      decimal.RequireFromString("0.015"),
		Threshold: decimal.NewFromInt(2500),
		Surcharge: decimal.NewFromInt(100),
	}
}

// ProcessingFee returns the charge deducted from a top-up of gross
func (f FeeSchedule) ProcessingFee(gross decimal.Decimal) decimal.Decimal {
	fee := gross.Mul(f.Rate)
	if gross.LessThan(f.Threshold) {
		return fee
	}
	return fee.Add(f.Surcharge)
}

// computeSplit shares a ride fare between driver, school and car owner by rate.
// The platform takes whatever is left, which goes negative if the rates add up to more than 1.
func computeSplit(gross, driverRate, schoolRate, carOwnerRate decimal.Decimal) (driver, school, carOwner, platform decimal.Decimal) {
	driver = driverRate.Mul(gross)
	school = schoolRate.Mul(gross)
	carOwner = carOwnerRate.Mul(gross)
	platform = gross.Sub(driver.Add(school).Add(carOwner))
	return driver, school, carOwner, platform
}
