package mongo

import (
	"github.com/dukex/operion-mongo/pkg/models"
)

// ResultField is the item key that receives an operation's result.
const ResultField = "result"

// Merge folds outcomes back into copies of their items. When continueOnFail is
// false the first rejection in input order is returned as *ItemFailedError and
// no items are returned.
func Merge(nodeID string, items []models.Item, outcomes []Outcome, continueOnFail bool) ([]models.Item, error) {
	if !continueOnFail {
		index, err := FirstRejection(outcomes)
		if err != nil {
			return nil, &ItemFailedError{Index: index, Err: err}
		}
	}

	merged := make([]models.Item, len(items))

	for i, item := range items {
		outcome := outcomes[i]

		if outcome.Fulfilled() {
			merged[i] = item.WithField(ResultField, outcome.Value)

			continue
		}

		merged[i] = item.WithError(&models.ItemError{
			Message: outcome.Err.Error(),
			Kind:    ErrorKind(outcome.Err),
			NodeID:  nodeID,
		})
	}

	return merged, nil
}
