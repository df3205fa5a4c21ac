// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sections builds the drafting prompts that weave stored endpoints
// into manuscript sections. Results discovers endpoints; Methods and
// Conclusion consume them through the catalog, optionally folding in
// subgroup analyses from the response ledger.
// Implements: prd005-section-pipeline (R2, R4);
//
//	docs/ARCHITECTURE § Section Prompts.
package sections

import (
	"fmt"
	"strings"

	"github.com/pdiddy/manuscript-engine/pkg/types"
)

// GenerateResultsPrompt asks the assistant to identify the trial's endpoints
// and report them as a categorized structure the extractor can parse.
const GenerateResultsPrompt = `Please can you identify all the endpoints evaluated in this clinical trial, grouped into categories such as primary, secondary, efficacy, and safety. Please provide the output as a Python dictionary assigned to a variable named endpoints, where each key is a category and each value is a nested structure of endpoint names.`

// DescribeEndpointPrompt asks for the main narrative paragraph of one
// endpoint's results.
func DescribeEndpointPrompt(endpointName string) string {
	return fmt.Sprintf("Please can you describe the results for the endpoint of %s. Refer to text and tables describing all analyses, please can you draft a paragraph describing this endpoint and summarizing the outcomes for it. Please can you add references to any tables or figures that would be relevant to include in a paper. Please can you provide the output as bullet points", endpointName)
}

// ListSubgroupsPrompt asks which subgroups an endpoint was evaluated in.
func ListSubgroupsPrompt(endpointName string) string {
	return fmt.Sprintf("For the endpoint %s, please provide a list of any subgroups the endpoint was evaluated in. Please can you provide the output as bullet points.", endpointName)
}

// DescribeSubgroupAnalysesPrompt asks for the subgroup-analysis narrative of
// one endpoint.
func DescribeSubgroupAnalysesPrompt(endpointName string) string {
	return fmt.Sprintf("Please can you describe the results for any subgroup analyses of the endpoint of %s. Refer to text and tables describing all analyses, please can you draft a paragraph describing this endpoint and summarizing the outcomes for it. Please can you add references to any tables or figures that would be relevant to include in a paper. Please can you provide the output as bullet points", endpointName)
}

// CommonAdverseEventsPrompt asks for the most common treatment emergent
// adverse events per study arm. Offered for safety-category endpoints.
const CommonAdverseEventsPrompt = `For each study arm please can you provide details of the 10 most common treatment emergent adverse events. If an adverse event is common in any one arm please provide the numbers for that adverse event for all study arms.`

// SeriousAdverseEventsPrompt asks for the serious adverse events per study
// arm. Offered for safety-category endpoints.
const SeriousAdverseEventsPrompt = `For each study arm please can you provide details of the serious adverse events that were reported. For each and every serious adverse event please provide the number and proportion of patients reporting it and provide a summary of the outcomes of the events.`

// EndpointPrompts returns the canned prompt choices for an endpoint. Safety
// endpoints get the two additional adverse-event prompts.
func EndpointPrompts(category, endpointName string) []string {
	prompts := []string{
		DescribeEndpointPrompt(endpointName),
		ListSubgroupsPrompt(endpointName),
		DescribeSubgroupAnalysesPrompt(endpointName),
	}
	if strings.EqualFold(category, "safety") {
		prompts = append(prompts, CommonAdverseEventsPrompt, SeriousAdverseEventsPrompt)
	}
	return prompts
}

// MethodsPrompt builds the Methods-generation prompt from the endpoints a
// user selected out of the catalog, grouped by category, with any chosen
// subgroup analyses appended for context.
func MethodsPrompt(selected []types.CategoryEndpoints, subgroups []types.ResponseRecord) string {
	var b strings.Builder
	b.WriteString("Please can you draft the Methods section describing how the following endpoints were evaluated in this clinical trial. For each endpoint describe the assessment methods, timing, and statistical analyses used. Please can you provide the output as paragraphs grouped by category.\n")
	writeEndpointList(&b, selected)
	writeSubgroupList(&b, subgroups)
	return b.String()
}

// ConclusionPrompt builds the Conclusion-generation prompt from selected
// endpoints and subgroup analyses.
func ConclusionPrompt(selected []types.CategoryEndpoints, subgroups []types.ResponseRecord) string {
	var b strings.Builder
	b.WriteString("Please can you draft the Conclusion section summarizing the findings for the following endpoints of this clinical trial, highlighting the clinical significance of the outcomes. Please can you provide the output as paragraphs.\n")
	writeEndpointList(&b, selected)
	writeSubgroupList(&b, subgroups)
	return b.String()
}

func writeEndpointList(b *strings.Builder, selected []types.CategoryEndpoints) {
	for _, ce := range selected {
		fmt.Fprintf(b, "\n%s endpoints:\n", ce.Category)
		for _, ep := range ce.Endpoints {
			fmt.Fprintf(b, "- %s\n", ep.Name)
		}
	}
}

func writeSubgroupList(b *strings.Builder, subgroups []types.ResponseRecord) {
	if len(subgroups) == 0 {
		return
	}
	b.WriteString("\nInclude the following subgroup analyses:\n")
	for _, rec := range subgroups {
		fmt.Fprintf(b, "- %s\n", rec.PromptText)
	}
}
