// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package githubint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/l3montree-dev/issuesync/shared"
)

const (
	OwnerField = "_github_owner"
	RepoField  = "_github_repo"
)

type issueRef struct {
	Owner  string
	Repo   string
	Number int
}

func (r issueRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// parseIssueRef accepts "owner/repo#123", "#123" and "123". The repository falls back to the
// configured default when the identifier does not carry one.
func parseIssueRef(id, defaultOwner, defaultRepo string) (issueRef, error) {
	id = strings.TrimSpace(id)
	ref := issueRef{Owner: defaultOwner, Repo: defaultRepo}

	numberPart := id
	if repoPart, num, ok := strings.Cut(id, "#"); ok {
		numberPart = num
		if repoPart != "" {
			owner, repo, ok := strings.Cut(repoPart, "/")
			if !ok || owner == "" || repo == "" {
				return issueRef{}, fmt.Errorf("invalid github issue identifier %q", id)
			}
			ref.Owner, ref.Repo = owner, repo
		}
	}

	n, err := strconv.Atoi(numberPart)
	if err != nil || n <= 0 {
		return issueRef{}, fmt.Errorf("invalid github issue number in %q", id)
	}
	ref.Number = n

	if ref.Owner == "" || ref.Repo == "" {
		return issueRef{}, shared.NewConfigurationError("github issue %q does not name a repository and no default repository is configured", id)
	}
	return ref, nil
}

// RewriteIdentifier expands a bare "#123" into "owner/repo#123" using the repository
// remembered in the custom fields of a previously synced issue.
func RewriteIdentifier(id string, customFields map[string]any) string {
	if strings.Contains(id, "/") {
		return id
	}
	owner, _ := customFields[OwnerField].(string)
	repo, _ := customFields[RepoField].(string)
	if owner == "" || repo == "" {
		return id
	}
	return owner + "/" + repo + "#" + strings.TrimPrefix(id, "#")
}

// repoFromURL extracts owner and repo from https://api.github.com/repos/{owner}/{repo}
func repoFromURL(u string) (string, string) {
	_, rest, ok := strings.Cut(u, "/repos/")
	if !ok {
		return "", ""
	}
	owner, repo, _ := strings.Cut(rest, "/")
	repo, _, _ = strings.Cut(repo, "/")
	return owner, repo
}
