package notebook

import (
	"github.com/inconshreveable/log15"

	"github.com/simoninireland/epyc/lib/guid"
	"github.com/simoninireland/epyc/resultset"
)

// restore rebuilds a Notebook's in-memory shape from already-loaded
// result sets; used only by persistence backends' Load implementations.
func restore(name, description string, attributes map[string]string, tags []string, current string, sets map[string]*resultset.ResultSet, locked bool) *Notebook {
	nb := &Notebook{
		name:        name,
		description: description,
		attributes:  attributes,
		tags:        tags,
		sets:        sets,
		current:     current,
		jobTag:      rebuildJobTag(sets),
		locked:      locked,
		log:         log15.New("notebook", name),
	}
	return nb
}

func rebuildJobTag(sets map[string]*resultset.ResultSet) map[guid.JobID]string {
	out := make(map[guid.JobID]string)
	for tag, rs := range sets {
		for _, id := range rs.PendingResults() {
			out[id] = tag
		}
	}
	return out
}
