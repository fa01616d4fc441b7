package xpath

// Evaluate runs a parsed expression against ctx, the direct entry point
// behind Expr.Evaluate for callers that would rather not depend on the
// Expr interface's method set.
func Evaluate(expr Expr, ctx *Context) (Value, error) {
	return expr.Evaluate(ctx)
}

// Eval parses text (consulting the parse cache) and evaluates the
// result against ctx in one call.
func Eval(text string, ctx *Context) (Value, error) {
	expr, err := Parse(text)
	if err != nil {
		return Value{}, err
	}
	return expr.Evaluate(ctx)
}
