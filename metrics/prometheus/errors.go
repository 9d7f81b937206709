package prometheus

import "errors"

// errBatch only selects the "error" status label for partial batches.
var errBatch = errors.New("batch insert partially failed")
