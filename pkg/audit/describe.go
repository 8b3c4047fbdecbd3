package audit

import (
	"fmt"
	"strings"

	"github.com/ctfer-io/scenario-editor/pkg/scenario"
)

// Describe returns the audit message of an edit: every section whose value
// differs, or a notice that nothing changed.
func Describe(id int, before, after scenario.Sections) string {
	changes := []string{}
	for _, k := range after.Keys() {
		nv, _ := after.Get(k)
		ov, ok := before.Get(k)
		switch {
		case !ok:
			changes = append(changes, fmt.Sprintf("Field '%s' was added with '%s'", k, nv))
		case !ov.Equal(nv):
			changes = append(changes, fmt.Sprintf("Field '%s' was updated from '%s' to '%s'", k, ov, nv))
		}
	}
	for _, k := range before.Keys() {
		if _, ok := after.Get(k); ok {
			continue
		}
		ov, _ := before.Get(k)
		changes = append(changes, fmt.Sprintf("Field '%s' was removed (was '%s')", k, ov))
	}

	if len(changes) == 0 {
		return fmt.Sprintf("Scenario ID %d was opened but no changes were made.", id)
	}
	return fmt.Sprintf("Scenario ID %d updated. Changes: %s", id, strings.Join(changes, " | "))
}
