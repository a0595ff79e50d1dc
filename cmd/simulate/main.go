package main

import (
	"encoding/json"
	"fmt"
	"os"

	"capital-research-be/pkg/assistant"
	"capital-research-be/pkg/knowledge"
	"capital-research-be/pkg/llm"

	"github.com/fatih/color"
)

// Offline diagnostic: exercises the knowledge index and the deal tools
// without any network dependency. Useful for eyeballing search ranking and
// tool math after changing the catalog or the economics constants.
func main() {
	header := color.New(color.FgCyan, color.Bold)
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)

	header.Println("== Knowledge search ==")
	store := knowledge.NewDefaultStore()
	for _, query := range []string{"DSCR loan requirements", "passive income returns", "70 percent rule"} {
		fmt.Printf("\nquery: %q\n", query)
		hits := store.Search(query, "", 3)
		if len(hits) == 0 {
			warn.Println("  no hits")
			continue
		}
		for _, hit := range hits {
			ok.Printf("  %.2f  %s (%s)\n", hit.Score, hit.Title, hit.Category)
		}
	}

	header.Println("\n== Deal analysis ==")
	toolkit := assistant.NewToolkit()
	calls := []llm.ToolCall{
		{
			ID:    "sim-1",
			Name:  assistant.ToolAnalyzeDeal,
			Input: json.RawMessage(`{"purchasePrice":150000,"arv":250000,"rehabCost":30000}`),
		},
		{
			ID:    "sim-2",
			Name:  assistant.ToolGetInvestmentReturns,
			Input: json.RawMessage(`{"investmentAmount":100000,"term":12,"type":"fixed"}`),
		},
		{
			ID:    "sim-3",
			Name:  assistant.ToolGetLoanOptions,
			Input: json.RawMessage(`{"loanAmount":200000,"propertyType":"single_family","loanPurpose":"purchase"}`),
		},
	}
	for _, call := range calls {
		result, err := toolkit.Dispatch(call)
		if err != nil {
			warn.Printf("%s: %v\n", call.Name, err)
			os.Exit(1)
		}
		fmt.Printf("\n%s:\n", call.Name)
		ok.Println(indentJSON(result))
	}
}

func indentJSON(raw string) string {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	pretty, err := json.MarshalIndent(v, "  ", "  ")
	if err != nil {
		return raw
	}
	return "  " + string(pretty)
}
