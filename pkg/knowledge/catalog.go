package knowledge

import "time"

// DefaultCatalog returns the seed catalog. It is rebuilt from this list at
// every process start; there is no persistence behind it. Mutating endpoints
// on top of this store respond 501 until a real index exists.
func DefaultCatalog() []Document {
	now := time.Now()

	return []Document{
		{
			ID:       "dscr-loans",
			Category: CategoryLendingProducts,
			Title:    "DSCR Loans",
			Content: "DSCR (Debt Service Coverage Ratio) loans qualify the property, not the borrower. " +
				"Underwriting is driven by the ratio of gross rental income to the proposed debt service, " +
				"with most programs requiring a DSCR of 1.0 or higher. No personal income verification, " +
				"no tax returns. Rates typically range from 7.25% to 8.5% with up to 80% LTV on purchases " +
				"and rate-and-term refinances. Ideal for long-term rental investors scaling a portfolio.",
			Metadata:  map[string]string{"min_dscr": "1.0", "max_ltv": "80%"},
			UpdatedAt: now,
		},
		{
			ID:       "fix-and-flip-loans",
			Category: CategoryLendingProducts,
			Title:    "Fix and Flip Loans",
			Content: "Short-term bridge financing for purchase plus renovation. Up to 90% of purchase price " +
				"and 100% of rehab budget, capped at 75% of ARV (after-repair value). Terms of 12 to 18 " +
				"months, interest-only payments, rates from 10.5% to 12.5%. Draws are released against " +
				"completed rehab milestones after inspection. Exit is a sale or a refinance into a DSCR loan.",
			UpdatedAt: now,
		},
		{
			ID:       "bridge-loans",
			Category: CategoryLendingProducts,
			Title:    "Bridge Loans",
			Content: "Bridge loans cover the gap between acquiring a property and securing permanent " +
				"financing or selling another asset. Close in as little as 10 days, terms of 6 to 24 months, " +
				"up to 75% LTV. Common uses: auction purchases, 1031 exchange timing, and stabilizing a " +
				"property before a DSCR refinance.",
			UpdatedAt: now,
		},
		{
			ID:       "construction-loans",
			Category: CategoryLendingProducts,
			Title:    "New Construction Loans",
			Content: "Ground-up construction financing for experienced builders and investors. Up to 85% " +
				"loan-to-cost including land, rates from 10% to 13%, terms of 12 to 24 months with " +
				"interest-only draws. Requires approved plans, a licensed GC, and a completion budget. " +
				"Vertical draws released on inspection.",
			UpdatedAt: now,
		},
		{
			ID:       "cash-out-refinance",
			Category: CategoryLendingProducts,
			Title:    "Cash-Out Refinance",
			Content: "Pull equity out of a stabilized rental to fund the next acquisition. Up to 75% LTV on " +
				"a cash-out DSCR refinance, 30-year fixed or ARM options. Seasoning requirements typically " +
				"3 to 6 months from purchase. Proceeds are unrestricted and commonly recycled as down " +
				"payments on additional doors.",
			UpdatedAt: now,
		},
		{
			ID:       "fixed-income-notes",
			Category: CategoryInvestmentInfo,
			Title:    "Fixed Income Note Investments",
			Content: "Passive investors can fund first-lien secured notes backed by real estate at a fixed " +
				"10% annual return, paid monthly. Terms of 12, 24, or 36 months with principal returned at " +
				"maturity. Every note is collateralized by a recorded lien at conservative loan-to-value.",
			Metadata:  map[string]string{"annual_rate": "10%"},
			UpdatedAt: now,
		},
		{
			ID:       "syndication-investments",
			Category: CategoryInvestmentInfo,
			Title:    "Syndication Investments",
			Content: "Equity syndications pool accredited investor capital into larger value-add projects. " +
				"Target annualized returns around 14% combining preferred return and profit participation. " +
				"Terms of 12 to 36 months depending on the business plan. Higher return than fixed notes, " +
				"with equity risk rather than a debt position.",
			Metadata:  map[string]string{"annual_rate": "14%", "accreditation": "required"},
			UpdatedAt: now,
		},
		{
			ID:       "seventy-percent-rule",
			Category: CategoryDeals,
			Title:    "The 70% Rule and Maximum Allowable Offer",
			Content: "Flippers use the 70% rule to cap their purchase price: the maximum allowable offer " +
				"(MAO) is 70% of ARV minus rehab cost. Paying over MAO erodes the margin that absorbs " +
				"closing costs, carry costs, and selling costs. A deal that fails the MAO test is rated a " +
				"pass regardless of projected ROI.",
			UpdatedAt: now,
		},
		{
			ID:       "motivated-sellers",
			Category: CategoryRealEstate,
			Title:    "Finding Motivated Sellers",
			Content: "Motivated seller leads come from pre-foreclosure lists, probate filings, tax " +
				"delinquencies, absentee owners, and tired landlords. Discounts of 10% to 30% below market " +
				"are common when the seller values speed and certainty over price. Cash offers with short " +
				"inspection windows win these negotiations.",
			UpdatedAt: now,
		},
		{
			ID:       "lending-compliance",
			Category: CategoryLegalCompliance,
			Title:    "Business-Purpose Lending Compliance",
			Content: "All loans arranged through the platform are business-purpose loans secured by " +
				"non-owner-occupied investment property. They are not consumer mortgages and are exempt " +
				"from TRID disclosure requirements. Borrowers certify business purpose at application. " +
				"Owner-occupied refinances are declined.",
			UpdatedAt: now,
		},
		{
			ID:       "platform-overview",
			Category: CategoryPlatformFeatures,
			Title:    "Platform Features",
			Content: "The platform pairs an off-market property search with capital placement: browse " +
				"motivated-seller inventory, run deal economics, match to a loan product, and submit one " +
				"application. Passive investors track note positions and distributions from the dashboard.",
			UpdatedAt: now,
		},
		{
			ID:       "faq-funding-speed",
			Category: CategoryFAQ,
			Title:    "How fast can a loan close?",
			Content: "Bridge and fix-and-flip loans close in 7 to 14 days with a clear title and a " +
				"complete file. DSCR loans average 3 to 4 weeks because of the appraisal and rent survey. " +
				"Proof of funds letters are issued same day for qualified buyers.",
			UpdatedAt: now,
		},
		{
			ID:       "market-indicators",
			Category: CategoryMarketData,
			Title:    "Reading Market Indicators",
			Content: "REIT index funds like VNQ and IYR are a fast proxy for institutional real estate " +
				"sentiment, while SPY anchors the broader market. Rising treasury yields pressure cap " +
				"rates and DSCR qualification; falling yields loosen them. Watch inventory months-of-supply " +
				"for flip exit risk.",
			UpdatedAt: now,
		},
	}
}
