package mvcc

import "github.com/calvinalkan/mvccscan/pkg/mvcckv"

// NewReverseValueLoaderForTesting constructs a ReverseValueLoader directly
// against a cursor, bypassing BackwardScanner, for value_loader_test.go.
func NewReverseValueLoaderForTesting(cursor mvcckv.Cursor, stats *mvcckv.CFStatistics) ReverseValueLoader {
	return ReverseValueLoader{cursor: cursor, stats: stats}
}

// NewValueLoaderForTesting is the forward-scan counterpart.
func NewValueLoaderForTesting(cursor mvcckv.Cursor, stats *mvcckv.CFStatistics) ValueLoader {
	return ValueLoader{cursor: cursor, stats: stats}
}
