package badger

import "fmt"

// Key prefixes for different data types
const (
	indexRecordPrefix = "idxrec"
	stepRecordPrefix  = "steprec"
)

// makeIndexRecordKey generates a key for an index record by its
// deterministic id.
func makeIndexRecordKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", indexRecordPrefix, id))
}

// makeStepRecordKey generates a composite key for a step record.
// Format: prefix:runID:stepName
func makeStepRecordKey(runID, stepName string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", stepRecordPrefix, runID, stepName))
}
