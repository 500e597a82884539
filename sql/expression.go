package sql

// Expression is the marker interface every tagged AST expression variant
// implements (spec §3/§4.2). Expression nodes are pure data ("no methods
// beyond construction", spec §4.2); all behavior lives in the Evaluator
// (package sql/expression).
type Expression interface {
	sealedExpression()
}
