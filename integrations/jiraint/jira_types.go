// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package jiraint

import (
	"encoding/json"
	"strings"
	"time"
)

// jiraTimeLayout is the timestamp format of the Jira REST API v3
const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

type user struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

type issueType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IconURL     string `json:"iconUrl,omitempty"`
	Description string `json:"description,omitempty"`
}

type status struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	StatusCategory *struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"statusCategory,omitempty"`
}

type priority struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IconURL string `json:"iconUrl,omitempty"`
}

type project struct {
	ID         string      `json:"id"`
	Key        string      `json:"key"`
	Name       string      `json:"name"`
	Self       string      `json:"self,omitempty"`
	IssueTypes []issueType `json:"issueTypes,omitempty"`
}

type issueFields struct {
	Summary     string     `json:"summary"`
	Description *ADF       `json:"description"`
	Status      *status    `json:"status"`
	Priority    *priority  `json:"priority"`
	IssueType   *issueType `json:"issuetype"`
	Assignee    *user      `json:"assignee"`
	Reporter    *user      `json:"reporter"`
	Labels      []string   `json:"labels"`
	Created     string     `json:"created"`
	Updated     string     `json:"updated"`

	// Custom holds every customfield_* value untouched
	Custom map[string]any `json:"-"`
}

func (f *issueFields) UnmarshalJSON(data []byte) error {
	type alias issueFields
	var known alias
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = issueFields(known)
	for k, v := range raw {
		if strings.HasPrefix(k, "customfield_") && v != nil {
			if f.Custom == nil {
				f.Custom = make(map[string]any)
			}
			f.Custom[k] = v
		}
	}
	return nil
}

type issue struct {
	ID             string      `json:"id"`
	Key            string      `json:"key"`
	Self           string      `json:"self"`
	Fields         issueFields `json:"fields"`
	RenderedFields *struct {
		Description string `json:"description"`
	} `json:"renderedFields,omitempty"`
}

type createIssueResponse struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

type searchResponse struct {
	Issues        []issue `json:"issues"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
	IsLast        bool    `json:"isLast"`
}

type transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   status `json:"to"`
}

type transitionsResponse struct {
	Transitions []transition `json:"transitions"`
}

type projectSearchResponse struct {
	Values []project `json:"values"`
	IsLast bool      `json:"isLast"`
}

type projectStatuses struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Statuses []status `json:"statuses"`
}

type attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Size     int    `json:"size"`
}

type accessibleResource struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

func parseJiraTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(jiraTimeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
