// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package azuredevopsint

import (
	"fmt"
	"strings"
	"time"
)

const apiVersion = "7.0"

const (
	fieldTitle       = "System.Title"
	fieldDescription = "System.Description"
	fieldState       = "System.State"
	fieldType        = "System.WorkItemType"
	fieldAssignedTo  = "System.AssignedTo"
	fieldCreatedBy   = "System.CreatedBy"
	fieldTags        = "System.Tags"
	fieldCreated     = "System.CreatedDate"
	fieldChanged     = "System.ChangedDate"
	fieldPriority    = "Microsoft.VSTS.Common.Priority"
)

// PatchOperation is a single JSON Patch (RFC 6902) operation.
type PatchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

func addField(name string, value any) PatchOperation {
	return PatchOperation{Op: "add", Path: "/fields/" + name, Value: value}
}

type identityRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName"`
}

type workItem struct {
	ID     int            `json:"id"`
	Rev    int            `json:"rev"`
	Fields map[string]any `json:"fields"`
	URL    string         `json:"url"`
	Links  struct {
		HTML struct {
			Href string `json:"href"`
		} `json:"html"`
	} `json:"_links"`
}

func (w workItem) str(field string) string {
	switch v := w.Fields[field].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%g", v)
	}
	return ""
}

func (w workItem) identity(field string) *identityRef {
	m, ok := w.Fields[field].(map[string]any)
	if !ok {
		return nil
	}
	ref := &identityRef{}
	ref.ID, _ = m["id"].(string)
	ref.DisplayName, _ = m["displayName"].(string)
	ref.UniqueName, _ = m["uniqueName"].(string)
	return ref
}

func (w workItem) timestamp(field string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, w.str(field))
	return t
}

func (w workItem) tags() []string {
	raw := w.str(fieldTags)
	if raw == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ";") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

type workItemList struct {
	Count int        `json:"count"`
	Value []workItem `json:"value"`
}

type wiqlResponse struct {
	WorkItems []struct {
		ID  int    `json:"id"`
		URL string `json:"url"`
	} `json:"workItems"`
}

type project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type projectList struct {
	Value []project `json:"value"`
}

type workItemType struct {
	Name          string `json:"name"`
	ReferenceName string `json:"referenceName"`
	Description   string `json:"description"`
	Icon          *struct {
		URL string `json:"url"`
	} `json:"icon"`
}

type workItemTypeList struct {
	Value []workItemType `json:"value"`
}

type workItemState struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type workItemStateList struct {
	Value []workItemState `json:"value"`
}

type attachmentReference struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
