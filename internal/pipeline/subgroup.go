// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "regexp"

// subgroupPattern matches prompts that ask for a subgroup analysis. The
// ledger stores the resulting flag verbatim; classification happens here,
// before the save. Per prd003-response-ledger R1.3.
var subgroupPattern = regexp.MustCompile(`(?i)\b(subgroups?|sub-groups?|sub groups?)\b`)

// IsSubgroupPrompt reports whether prompt text asks for a subgroup
// analysis rather than the whole study population.
func IsSubgroupPrompt(promptText string) bool {
	return subgroupPattern.MatchString(promptText)
}
