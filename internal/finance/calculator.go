// Package finance holds the pure investment-metric calculations used by the
// market and property features. Nothing here touches the store.
package finance

import (
	"math"

	"github.com/shopspring/decimal"

	"deediq/internal/apperror"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// RentToValueRatio is annual rent as a percentage of home value, rounded to
// two decimals. A non-positive home value yields 0.
func RentToValueRatio(medianRent, medianHomeValue float64) float64 {
	if medianHomeValue <= 0 {
		return 0
	}
	rent := decimal.NewFromFloat(medianRent)
	value := decimal.NewFromFloat(medianHomeValue)
	ratio := rent.Mul(twelve).Div(value).Mul(hundred).Round(2)
	f, _ := ratio.Float64()
	return f
}

// Inputs describes one calculator scenario. Rates are percent numbers
// (6.5 means 6.5%); expenses are monthly dollar amounts.
type Inputs struct {
	PurchasePrice      float64 `json:"purchase_price"`
	DownPaymentPercent float64 `json:"down_payment_percent"`
	InterestRate       float64 `json:"interest_rate"`
	LoanTermYears      int     `json:"loan_term"`
	MonthlyRent        float64 `json:"monthly_rent"`
	PropertyTax        float64 `json:"property_tax"`
	Insurance          float64 `json:"insurance"`
	HOA                float64 `json:"hoa"`
	Maintenance        float64 `json:"maintenance"`
	Capex              float64 `json:"capex"`
	VacancyRate        float64 `json:"vacancy_rate"`
	ClosingCosts       float64 `json:"closing_costs"`

	// HoldYears and AppreciationRate drive the IRR projection. A zero
	// HoldYears or a nil AppreciationRate falls back to the defaults; an
	// explicit 0 appreciation is kept.
	HoldYears        int      `json:"hold_years"`
	AppreciationRate *float64 `json:"appreciation_rate"`
}

const (
	DefaultHoldYears        = 5
	DefaultAppreciationRate = 3.0
)

type Returns struct {
	MonthlyPayment   float64 `json:"monthly_payment"`
	MonthlyNOI       float64 `json:"monthly_noi"`
	MonthlyCashFlow  float64 `json:"monthly_cash_flow"`
	CashOnCashReturn float64 `json:"cash_on_cash_return"`
	CapRate          float64 `json:"cap_rate"`
	TotalCashNeeded  float64 `json:"total_cash_needed"`
	IRR              float64 `json:"irr"`
}

func (in Inputs) appreciation() float64 {
	if in.AppreciationRate == nil {
		return DefaultAppreciationRate
	}
	return *in.AppreciationRate
}

func (in Inputs) validate() error {
	switch {
	case in.PurchasePrice <= 0:
		return apperror.Invalid("Purchase price must be greater than zero")
	case in.DownPaymentPercent < 0 || in.DownPaymentPercent > 100:
		return apperror.Invalid("Down payment must be between 0 and 100 percent")
	case in.InterestRate < 0:
		return apperror.Invalid("Interest rate cannot be negative")
	case in.LoanTermYears <= 0:
		return apperror.Invalid("Loan term must be at least one year")
	case in.VacancyRate < 0 || in.VacancyRate > 100:
		return apperror.Invalid("Vacancy rate must be between 0 and 100 percent")
	case in.HoldYears < 0:
		return apperror.Invalid("Hold period cannot be negative")
	}
	return nil
}

// InvestmentReturns computes the standard buy-and-hold metrics for a
// financed rental.
func InvestmentReturns(in Inputs) (Returns, error) {
	if err := in.validate(); err != nil {
		return Returns{}, err
	}
	if in.HoldYears == 0 {
		in.HoldYears = DefaultHoldYears
	}

	price := decimal.NewFromFloat(in.PurchasePrice)
	down := price.Mul(decimal.NewFromFloat(in.DownPaymentPercent)).Div(hundred)
	principal := price.Sub(down)

	payment := MonthlyPayment(principal.InexactFloat64(), in.InterestRate, in.LoanTermYears)

	effectiveRent := decimal.NewFromFloat(in.MonthlyRent).
		Mul(hundred.Sub(decimal.NewFromFloat(in.VacancyRate))).Div(hundred)
	expenses := decimal.NewFromFloat(in.PropertyTax).
		Add(decimal.NewFromFloat(in.Insurance)).
		Add(decimal.NewFromFloat(in.HOA)).
		Add(decimal.NewFromFloat(in.Maintenance)).
		Add(decimal.NewFromFloat(in.Capex))
	noi := effectiveRent.Sub(expenses)
	cashFlow := noi.Sub(decimal.NewFromFloat(payment))
	totalCash := down.Add(decimal.NewFromFloat(in.ClosingCosts))

	out := Returns{
		MonthlyPayment:  round2(decimal.NewFromFloat(payment)),
		MonthlyNOI:      round2(noi),
		MonthlyCashFlow: round2(cashFlow),
		CapRate:         round2(noi.Mul(twelve).Div(price).Mul(hundred)),
		TotalCashNeeded: round2(totalCash),
	}
	if totalCash.IsPositive() {
		out.CashOnCashReturn = round2(cashFlow.Mul(twelve).Div(totalCash).Mul(hundred))
	}

	flows := projectCashFlows(in, totalCash.InexactFloat64(), cashFlow.InexactFloat64()*12, principal.InexactFloat64())
	if irr, ok := IRR(flows); ok {
		out.IRR = round2(decimal.NewFromFloat(irr * 100))
	}
	return out, nil
}

// MonthlyPayment is the fixed amortized payment for principal at an annual
// percent rate over years.
func MonthlyPayment(principal, annualRatePercent float64, years int) float64 {
	n := float64(years * 12)
	if principal <= 0 || n <= 0 {
		return 0
	}
	r := annualRatePercent / 1200
	if r == 0 {
		return principal / n
	}
	return principal * r / (1 - math.Pow(1+r, -n))
}

// RemainingBalance is the loan balance after paid monthly payments.
func RemainingBalance(principal, annualRatePercent float64, years, paid int) float64 {
	n := years * 12
	if paid >= n {
		return 0
	}
	r := annualRatePercent / 1200
	if r == 0 {
		return principal * float64(n-paid) / float64(n)
	}
	payment := MonthlyPayment(principal, annualRatePercent, years)
	growth := math.Pow(1+r, float64(paid))
	return principal*growth - payment*(growth-1)/r
}

// projectCashFlows builds yearly flows: the initial outlay, flat annual cash
// flow, and in the final year the sale net of the remaining loan.
func projectCashFlows(in Inputs, outlay, annualCashFlow, principal float64) []float64 {
	flows := make([]float64, in.HoldYears+1)
	flows[0] = -outlay
	for y := 1; y <= in.HoldYears; y++ {
		flows[y] = annualCashFlow
	}
	sale := in.PurchasePrice * math.Pow(1+in.appreciation()/100, float64(in.HoldYears))
	balance := RemainingBalance(principal, in.InterestRate, in.LoanTermYears, in.HoldYears*12)
	flows[in.HoldYears] += sale - balance
	return flows
}

// IRR finds the rate where the NPV of flows is zero, by bisection over
// (-99%, 1000%). ok is false when the flows have no sign change in range.
func IRR(flows []float64) (rate float64, ok bool) {
	lo, hi := -0.99, 10.0
	fLo, fHi := npv(flows, lo), npv(flows, hi)
	if math.IsNaN(fLo) || math.IsNaN(fHi) || fLo*fHi > 0 {
		return 0, false
	}
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		fMid := npv(flows, mid)
		if math.Abs(fMid) < 1e-9 || hi-lo < 1e-12 {
			return mid, true
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo, fLo = mid, fMid
		}
	}
	return (lo + hi) / 2, true
}

func npv(flows []float64, rate float64) float64 {
	total := 0.0
	for t, cf := range flows {
		total += cf / math.Pow(1+rate, float64(t))
	}
	return total
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
