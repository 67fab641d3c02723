// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package jiraint

import (
	"strings"

	"github.com/l3montree-dev/issuesync/shared"
)

var jqlEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quoteJQL(s string) string {
	return `"` + jqlEscaper.Replace(s) + `"`
}

func quoteAll(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, quoteJQL(v))
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

// BuildJQL assembles a query from the structured search options. Every value is quoted.
func BuildJQL(opts shared.SearchOptions, defaultProject string) string {
	var clauses []string

	if p := shared.FirstNonEmpty(opts.ProjectID, defaultProject); p != "" {
		clauses = append(clauses, "project = "+quoteJQL(p))
	}
	if q := strings.TrimSpace(opts.Query); q != "" {
		clauses = append(clauses, "text ~ "+quoteJQL(q))
	}
	if len(opts.Status) == 1 {
		clauses = append(clauses, "status = "+quoteJQL(opts.Status[0]))
	} else if len(opts.Status) > 1 {
		clauses = append(clauses, "status IN "+quoteAll(opts.Status))
	}
	if opts.Assignee != "" {
		clauses = append(clauses, "assignee = "+quoteJQL(opts.Assignee))
	}
	if len(opts.Labels) > 0 {
		clauses = append(clauses, "labels IN "+quoteAll(opts.Labels))
	}
	if opts.IssueType != "" {
		clauses = append(clauses, "issuetype = "+quoteJQL(opts.IssueType))
	}

	return strings.TrimSpace(strings.Join(clauses, " AND ") + " ORDER BY updated DESC")
}
