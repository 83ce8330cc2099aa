package mathutils

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
	six = decimal.NewFromInt(6)
)

// LinearInterest returns 1 + rate*dt/year, the growth factor applied to the
// liquidity index between updates. rate is in ray.
func LinearInterest(rate *big.Int, lastUpdate, now int64) decimal.Decimal {
	dt := now - lastUpdate
	if dt <= 0 || !isPositive(rate) {
		return one
	}
	elapsed := decimal.NewFromInt(dt).DivRound(decimal.NewFromInt(SecondsPerYear), divPrecision)
	return one.Add(fromRay(rate).Mul(elapsed))
}

// CompoundedInterest approximates (1 + rate/year)^dt with the protocol's
// three-term binomial expansion. rate is in ray.
func CompoundedInterest(rate *big.Int, lastUpdate, now int64) decimal.Decimal {
	dt := now - lastUpdate
	if dt <= 0 || !isPositive(rate) {
		return one
	}
	exp := decimal.NewFromInt(dt)
	expMinusOne := decimal.NewFromInt(dt - 1)
	expMinusTwo := decimal.NewFromInt(dt - 2)
	if dt < 2 {
		expMinusTwo = decimal.Zero
	}

	perSecond := fromRay(rate).DivRound(decimal.NewFromInt(SecondsPerYear), divPrecision)
	basePowerTwo := perSecond.Mul(perSecond)
	basePowerThree := basePowerTwo.Mul(perSecond)

	second := exp.Mul(expMinusOne).Mul(basePowerTwo).DivRound(two, divPrecision)
	third := exp.Mul(expMinusOne).Mul(expMinusTwo).Mul(basePowerThree).DivRound(six, divPrecision)

	return one.Add(perSecond.Mul(exp)).Add(second).Add(third)
}

// NormalizedIncome is the liquidity index accrued to now, as a plain ratio.
func NormalizedIncome(liquidityIndex, liquidityRate *big.Int, lastUpdate, now int64) decimal.Decimal {
	return fromRay(liquidityIndex).Mul(LinearInterest(liquidityRate, lastUpdate, now))
}

// NormalizedDebt is the variable borrow index accrued to now, as a plain ratio.
func NormalizedDebt(variableBorrowIndex, variableBorrowRate *big.Int, lastUpdate, now int64) decimal.Decimal {
	return fromRay(variableBorrowIndex).Mul(CompoundedInterest(variableBorrowRate, lastUpdate, now))
}
