// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package integrations

import (
	"go.uber.org/fx"
)

// Module provides the adapter registry with every built-in provider
var Module = fx.Options(
	fx.Provide(NewDefaultRegistry),
)
