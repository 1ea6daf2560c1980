// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package search

import "errors"

var errCannotSearchWithoutFilters = errors.New("cannot search without filters")
