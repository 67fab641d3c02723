// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package azuredevopsint

import (
	"strings"

	"github.com/l3montree-dev/issuesync/shared"
)

func quoteWIQL(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// BuildWIQL translates the search options into a work item query.
func BuildWIQL(opts shared.SearchOptions, project string) string {
	clauses := []string{}
	if p := shared.FirstNonEmpty(opts.ProjectID, project); p != "" {
		clauses = append(clauses, "[System.TeamProject] = "+quoteWIQL(p))
	}
	if q := strings.TrimSpace(opts.Query); q != "" {
		clauses = append(clauses, "[System.Title] CONTAINS "+quoteWIQL(q))
	}
	if len(opts.Status) > 0 {
		states := make([]string, 0, len(opts.Status))
		for _, s := range opts.Status {
			states = append(states, quoteWIQL(s))
		}
		clauses = append(clauses, "[System.State] IN ("+strings.Join(states, ", ")+")")
	}
	if opts.Assignee != "" {
		clauses = append(clauses, "[System.AssignedTo] = "+quoteWIQL(opts.Assignee))
	}
	for _, l := range opts.Labels {
		clauses = append(clauses, "[System.Tags] CONTAINS "+quoteWIQL(l))
	}
	if opts.IssueType != "" {
		clauses = append(clauses, "[System.WorkItemType] = "+quoteWIQL(opts.IssueType))
	}

	q := "SELECT [System.Id] FROM WorkItems"
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	return q + " ORDER BY [System.ChangedDate] DESC"
}
