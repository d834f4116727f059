package retrieval

// Strategy is the cost/quality tier selected from corpus size before any
// retrieval call is made.
type Strategy string

const (
	// StrategySimple issues a single retrieval call with the raw query.
	StrategySimple Strategy = "simple"
	// StrategyMedium fans out two query variants and fuses the results.
	StrategyMedium Strategy = "medium"
	// StrategyFull fans out all variants, fuses, and expands context.
	StrategyFull Strategy = "full"
)

// Corpus-size boundaries. At or below simpleMaxChunks a single exhaustive
// call already covers the corpus; above mediumMaxChunks single-query recall
// degrades enough to justify full fan-out plus neighborhood expansion.
const (
	simpleMaxChunks = 15
	mediumMaxChunks = 50
)

// SelectStrategy maps a corpus chunk count to a retrieval strategy. It is a
// pure total function; negative counts are treated as zero.
func SelectStrategy(chunkCount int) Strategy {
	switch {
	case chunkCount <= simpleMaxChunks:
		return StrategySimple
	case chunkCount <= mediumMaxChunks:
		return StrategyMedium
	default:
		return StrategyFull
	}
}
