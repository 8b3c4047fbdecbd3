package flags

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	errs "github.com/ctfer-io/scenario-editor/pkg/errors"
	"github.com/ctfer-io/scenario-editor/pkg/repository"
	"github.com/ctfer-io/scenario-editor/pkg/scenario"
)

func Test_U_OneOf(t *testing.T) {
	t.Parallel()

	var tests = map[string]struct {
		Check     func(context.Context, string) error
		Value     string
		ExpectErr bool
	}{
		"merge-replace": {
			Check: func(ctx context.Context, v string) error {
				return oneOf("merge-policy", scenario.MergePolicies)(ctx, nil, v)
			},
			Value: "replace",
		},
		"merge-unknown": {
			Check: func(ctx context.Context, v string) error {
				return oneOf("merge-policy", scenario.MergePolicies)(ctx, nil, v)
			},
			Value:     "union",
			ExpectErr: true,
		},
		"conflict-reject": {
			Check: func(ctx context.Context, v string) error {
				return oneOf("conflict-policy", repository.ConflictPolicies)(ctx, nil, v)
			},
			Value: "reject",
		},
		"conflict-case-sensitive": {
			Check: func(ctx context.Context, v string) error {
				return oneOf("conflict-policy", repository.ConflictPolicies)(ctx, nil, v)
			},
			Value:     "Reject",
			ExpectErr: true,
		},
	}

	for testname, tt := range tests {
		t.Run(testname, func(t *testing.T) {
			t.Parallel()

			err := tt.Check(context.Background(), tt.Value)
			if tt.ExpectErr {
				var verr *errs.ErrValidationFailed
				assert.ErrorAs(t, err, &verr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
