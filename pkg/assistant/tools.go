package assistant

import (
	"encoding/json"
	"fmt"
	"math"

	"capital-research-be/pkg/llm"
)

const (
	ToolSearchProperties     = "searchProperties"
	ToolAnalyzeDeal          = "analyzeDeal"
	ToolGetLoanOptions       = "getLoanOptions"
	ToolGetInvestmentReturns = "getInvestmentReturns"
)

// Deal economics constants. Closing and selling allowances are flat
// percentages of purchase price and ARV respectively.
const (
	maoARVRatio     = 0.70
	closingCostRate = 0.03
	sellingCostRate = 0.06

	fixedNoteRate   = 0.10
	syndicationRate = 0.14
)

// --- searchProperties ---

// SearchPropertiesInput packages a property search the calling surface
// executes; the tool itself queries nothing.
type SearchPropertiesInput struct {
	Location        string  `json:"location"`
	PropertyType    string  `json:"propertyType,omitempty"`
	PriceMin        float64 `json:"priceMin,omitempty"`
	PriceMax        float64 `json:"priceMax,omitempty"`
	MotivatedSeller bool    `json:"motivatedSeller,omitempty"`
}

func (in *SearchPropertiesInput) Validate() error {
	if in.Location == "" {
		return fmt.Errorf("location is required")
	}
	if in.PriceMin < 0 || in.PriceMax < 0 {
		return fmt.Errorf("price bounds must be non-negative")
	}
	if in.PriceMax > 0 && in.PriceMin > in.PriceMax {
		return fmt.Errorf("priceMin exceeds priceMax")
	}
	return nil
}

type SearchPropertiesResult struct {
	Action string                `json:"action"`
	Path   string                `json:"path"`
	Params SearchPropertiesInput `json:"params"`
}

// SearchProperties returns a redirect directive for the property browser.
func SearchProperties(in SearchPropertiesInput) (*SearchPropertiesResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &SearchPropertiesResult{
		Action: "redirect",
		Path:   "/properties",
		Params: in,
	}, nil
}

// --- analyzeDeal ---

type AnalyzeDealInput struct {
	PurchasePrice float64 `json:"purchasePrice"`
	ARV           float64 `json:"arv"`
	RehabCost     float64 `json:"rehabCost"`
	Strategy      string  `json:"strategy,omitempty"`
}

func (in *AnalyzeDealInput) Validate() error {
	if in.PurchasePrice <= 0 {
		return fmt.Errorf("purchasePrice must be positive")
	}
	if in.ARV <= 0 {
		return fmt.Errorf("arv must be positive")
	}
	if in.RehabCost < 0 {
		return fmt.Errorf("rehabCost must be non-negative")
	}
	return nil
}

type DealAnalysis struct {
	MaxAllowableOffer float64 `json:"maxAllowableOffer"`
	MeetsMAO          bool    `json:"meetsMAO"`
	TotalInvestment   float64 `json:"totalInvestment"`
	GrossProfit       float64 `json:"grossProfit"`
	ROI               float64 `json:"roi"`
	Rating            string  `json:"rating"`
	Feasibility       string  `json:"feasibility"`
}

// AnalyzeDeal runs flip economics: MAO = 70% of ARV minus rehab, total
// investment carries a 3% closing allowance, gross profit nets a 6% selling
// allowance off ARV. Failing the MAO test forces a D rating regardless of
// ROI. Monetary figures are rounded to whole units, ROI to one decimal.
func AnalyzeDeal(in AnalyzeDealInput) (*DealAnalysis, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	mao := in.ARV*maoARVRatio - in.RehabCost
	meetsMAO := in.PurchasePrice <= mao
	totalInvestment := in.PurchasePrice + in.RehabCost + in.PurchasePrice*closingCostRate
	grossProfit := in.ARV - totalInvestment - in.ARV*sellingCostRate
	roi := grossProfit / totalInvestment * 100

	rating := "D"
	switch {
	case roi >= 15:
		rating = "A"
	case roi >= 10:
		rating = "B"
	case roi >= 5:
		rating = "C"
	}
	if !meetsMAO {
		rating = "D"
	}

	feasibility := "This deal meets the 70% rule and is worth pursuing."
	if !meetsMAO {
		feasibility = "Purchase price exceeds the maximum allowable offer; renegotiate or pass."
	}

	return &DealAnalysis{
		MaxAllowableOffer: math.Round(mao),
		MeetsMAO:          meetsMAO,
		TotalInvestment:   math.Round(totalInvestment),
		GrossProfit:       math.Round(grossProfit),
		ROI:               math.Round(roi*10) / 10,
		Rating:            rating,
		Feasibility:       feasibility,
	}, nil
}

// --- getLoanOptions ---

type GetLoanOptionsInput struct {
	LoanAmount   float64 `json:"loanAmount"`
	PropertyType string  `json:"propertyType"`
	LoanPurpose  string  `json:"loanPurpose"`
}

func (in *GetLoanOptionsInput) Validate() error {
	if in.LoanAmount <= 0 {
		return fmt.Errorf("loanAmount must be positive")
	}
	switch in.LoanPurpose {
	case "purchase", "refinance", "cash_out", "construction":
		return nil
	default:
		return fmt.Errorf("loanPurpose must be one of purchase, refinance, cash_out, construction")
	}
}

type LoanProduct struct {
	Name        string `json:"name"`
	RateRange   string `json:"rateRange"`
	MaxLeverage string `json:"maxLeverage"`
	Rating      string `json:"rating"`
}

// loanProductTable is a deterministic rule table keyed by loan purpose.
// A static lookup, not a scored match.
var loanProductTable = map[string][]LoanProduct{
	"purchase": {
		{Name: "Fix and Flip Loan", RateRange: "10.5% - 12.5%", MaxLeverage: "90% LTC", Rating: "best for short holds"},
		{Name: "DSCR Rental Loan", RateRange: "7.25% - 8.5%", MaxLeverage: "80% LTV", Rating: "best for long-term rentals"},
	},
	"refinance": {
		{Name: "DSCR Rate & Term Refinance", RateRange: "7.25% - 8.5%", MaxLeverage: "80% LTV", Rating: "best for stabilized rentals"},
	},
	"cash_out": {
		{Name: "DSCR Cash-Out Refinance", RateRange: "7.5% - 8.75%", MaxLeverage: "75% LTV", Rating: "best for equity recycling"},
	},
	"construction": {
		{Name: "Ground-Up Construction Loan", RateRange: "10% - 13%", MaxLeverage: "85% LTC", Rating: "best for experienced builders"},
	},
}

// GetLoanOptions returns the fixed product records matching the loan purpose.
func GetLoanOptions(in GetLoanOptionsInput) ([]LoanProduct, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return loanProductTable[in.LoanPurpose], nil
}

// --- getInvestmentReturns ---

type GetInvestmentReturnsInput struct {
	InvestmentAmount float64 `json:"investmentAmount"`
	TermMonths       int     `json:"term"`
	Type             string  `json:"type,omitempty"`
}

func (in *GetInvestmentReturnsInput) Validate() error {
	if in.InvestmentAmount <= 0 {
		return fmt.Errorf("investmentAmount must be positive")
	}
	switch in.TermMonths {
	case 12, 24, 36:
	default:
		return fmt.Errorf("term must be 12, 24 or 36 months")
	}
	switch in.Type {
	case "", "fixed", "syndication":
		return nil
	default:
		return fmt.Errorf("type must be fixed or syndication")
	}
}

type InvestmentProjection struct {
	AnnualRate  float64 `json:"annualRate"`
	TermMonths  int     `json:"term"`
	TotalReturn float64 `json:"totalReturn"`
	Profit      float64 `json:"profit"`
}

// GetInvestmentReturns projects simple-interest returns at the fixed program
// rate: 10% for secured notes, 14% for syndications.
func GetInvestmentReturns(in GetInvestmentReturnsInput) (*InvestmentProjection, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	rate := fixedNoteRate
	if in.Type == "syndication" {
		rate = syndicationRate
	}

	totalReturn := in.InvestmentAmount * (1 + rate*float64(in.TermMonths)/12)
	return &InvestmentProjection{
		AnnualRate:  rate,
		TermMonths:  in.TermMonths,
		TotalReturn: math.Round(totalReturn),
		Profit:      math.Round(totalReturn - in.InvestmentAmount),
	}, nil
}

// --- dispatch ---

// Toolkit validates and executes tool calls issued by the model.
type Toolkit struct{}

func NewToolkit() *Toolkit {
	return &Toolkit{}
}

// Definitions returns the tool schemas advertised to the model.
func (t *Toolkit) Definitions() []llm.Tool {
	return []llm.Tool{
		{
			Name:        ToolSearchProperties,
			Description: "Search the off-market property inventory. Returns a redirect the UI follows; it does not return listings inline.",
			InputSchema: objectSchema(map[string]interface{}{
				"location":        map[string]interface{}{"type": "string", "description": "City, state or ZIP to search"},
				"propertyType":    map[string]interface{}{"type": "string", "description": "single_family, multi_family, commercial or land"},
				"priceMin":        map[string]interface{}{"type": "number"},
				"priceMax":        map[string]interface{}{"type": "number"},
				"motivatedSeller": map[string]interface{}{"type": "boolean"},
			}, "location"),
		},
		{
			Name:        ToolAnalyzeDeal,
			Description: "Analyze flip deal economics from purchase price, ARV and rehab cost. Returns MAO, ROI and an A-D rating.",
			InputSchema: objectSchema(map[string]interface{}{
				"purchasePrice": map[string]interface{}{"type": "number"},
				"arv":           map[string]interface{}{"type": "number", "description": "After-repair value"},
				"rehabCost":     map[string]interface{}{"type": "number"},
				"strategy":      map[string]interface{}{"type": "string", "description": "flip or rental"},
			}, "purchasePrice", "arv", "rehabCost"),
		},
		{
			Name:        ToolGetLoanOptions,
			Description: "Match a borrower to loan products by purpose (purchase, refinance, cash_out, construction).",
			InputSchema: objectSchema(map[string]interface{}{
				"loanAmount":   map[string]interface{}{"type": "number"},
				"propertyType": map[string]interface{}{"type": "string"},
				"loanPurpose":  map[string]interface{}{"type": "string", "enum": []string{"purchase", "refinance", "cash_out", "construction"}},
			}, "loanAmount", "propertyType", "loanPurpose"),
		},
		{
			Name:        ToolGetInvestmentReturns,
			Description: "Project passive investment returns for a fixed note (10%) or syndication (14%) over 12, 24 or 36 months.",
			InputSchema: objectSchema(map[string]interface{}{
				"investmentAmount": map[string]interface{}{"type": "number"},
				"term":             map[string]interface{}{"type": "integer", "enum": []int{12, 24, 36}},
				"type":             map[string]interface{}{"type": "string", "enum": []string{"fixed", "syndication"}},
			}, "investmentAmount", "term"),
		},
	}
}

// Dispatch decodes, validates and runs one tool call, returning the result
// as a JSON string for the model.
func (t *Toolkit) Dispatch(call llm.ToolCall) (string, error) {
	switch call.Name {
	case ToolSearchProperties:
		var in SearchPropertiesInput
		if err := json.Unmarshal(call.Input, &in); err != nil {
			return "", fmt.Errorf("decode %s input: %w", call.Name, err)
		}
		result, err := SearchProperties(in)
		if err != nil {
			return "", err
		}
		return marshalResult(result)

	case ToolAnalyzeDeal:
		var in AnalyzeDealInput
		if err := json.Unmarshal(call.Input, &in); err != nil {
			return "", fmt.Errorf("decode %s input: %w", call.Name, err)
		}
		result, err := AnalyzeDeal(in)
		if err != nil {
			return "", err
		}
		return marshalResult(result)

	case ToolGetLoanOptions:
		var in GetLoanOptionsInput
		if err := json.Unmarshal(call.Input, &in); err != nil {
			return "", fmt.Errorf("decode %s input: %w", call.Name, err)
		}
		products, err := GetLoanOptions(in)
		if err != nil {
			return "", err
		}
		return marshalResult(map[string]interface{}{"products": products})

	case ToolGetInvestmentReturns:
		var in GetInvestmentReturnsInput
		if err := json.Unmarshal(call.Input, &in); err != nil {
			return "", fmt.Errorf("decode %s input: %w", call.Name, err)
		}
		result, err := GetInvestmentReturns(in)
		if err != nil {
			return "", err
		}
		return marshalResult(result)

	default:
		return "", fmt.Errorf("unknown tool: %s", call.Name)
	}
}

func marshalResult(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}
	return string(raw), nil
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
