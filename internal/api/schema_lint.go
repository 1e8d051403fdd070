package api

import (
	"fmt"
	"sort"

	"armybuilder/internal/dataset"
)

type SchemaIssue struct {
	Army     string `json:"army"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
	Field    string `json:"field"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// LintDatasets validates every unit of the loaded datasets and reports
// duplicate ids within a category. Results are ordered by army.
func LintDatasets(datasets map[string]*dataset.Dataset) []SchemaIssue {
	armies := make([]string, 0, len(datasets))
	for name := range datasets {
		armies = append(armies, name)
	}
	sort.Strings(armies)

	var issues []SchemaIssue
	for _, name := range armies {
		ds := datasets[name]
		for _, c := range dataset.Categories {
			seen := map[string]int{}
			for i, u := range ds.Units[c] {
				if prev, dup := seen[u.ID]; dup && u.ID != "" {
					issues = append(issues, SchemaIssue{
						Army: name, Category: string(c), Unit: u.ID, Field: "id",
						Code:    ErrUniqueViolation,
						Message: fmt.Sprintf("id also used by entry %d", prev),
					})
				}
				seen[u.ID] = i
				for _, fe := range ValidateUnit(nil, name, c, u, nil, "") {
					issues = append(issues, SchemaIssue{
						Army: name, Category: string(c), Unit: u.ID, Field: fe.Field,
						Code: fe.Code, Message: fe.Message,
					})
				}
			}
		}
	}
	return issues
}
