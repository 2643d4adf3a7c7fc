// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package replace

import (
	"context"
	"fmt"

	apperrors "wingman/cli/internal/errors"
	"wingman/cli/internal/fieldref"
)

// Locator builds the candidate set for a replacement run.
type Locator struct {
	conn Connector
}

// NewLocator creates a locator over the given connector.
func NewLocator(conn Connector) *Locator {
	return &Locator{conn: conn}
}

// Candidates validates that the old field exists in the org schema and
// returns every report, ordered by report id. The existence check runs
// eagerly, before any batching; a missing object or field is fatal.
//
// Report definitions are not inspected here: content is only available
// after retrieve, so the containment check happens in the rewriter and
// non-matching reports finish with an unchanged outcome.
func (l *Locator) Candidates(ctx context.Context, oldField fieldref.Ref) ([]ReportDescriptor, error) {
	exists, err := l.conn.FieldExists(ctx, oldField)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.New(apperrors.NotFound,
			fmt.Sprintf("field %s does not exist in the org schema", oldField))
	}

	reports, err := l.conn.ListReports(ctx)
	if err != nil {
		return nil, err
	}
	sortByID(reports)
	return reports, nil
}
