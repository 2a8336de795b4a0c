package prompt

// PromptIDs contains all known prompt identifiers
var PromptIDs = struct {
	DiagnosePlant     string
	MarketInsights    string
	SchemeInformation string

	AssistantNavigation string
}{
	DiagnosePlant:     "flows.diagnose_plant",
	MarketInsights:    "flows.market_insights",
	SchemeInformation: "flows.scheme_information",

	AssistantNavigation: "assistant.navigation",
}
