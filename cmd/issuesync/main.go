// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package main

import (
	"github.com/l3montree-dev/issuesync/cmd/issuesync/commands"
	"github.com/l3montree-dev/issuesync/shared"
)

func main() {
	shared.LoadConfig() // nolint: errcheck
	commands.Execute()
}
