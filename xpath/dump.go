package xpath

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump serializes an expression tree back to a readable s-expression
// form. It exists for two reasons: debugging, and as the evidence for
// the parse-cache invariant that reparsing an expression yields an
// object semantically indistinguishable from a fresh parse -- comparing
// two Dump outputs is a cheap proxy for structural equality since Expr
// values carry no exported fields to compare directly.
func Dump(e Expr) string {
	var b strings.Builder
	dump(&b, e)
	return b.String()
}

func dump(b *strings.Builder, e Expr) {
	switch v := e.(type) {
	case *location:
		b.WriteString("(path")
		if v.absolute {
			b.WriteString(" abs")
		}
		for _, st := range v.steps {
			b.WriteByte(' ')
			dumpStep(b, st)
		}
		b.WriteByte(')')
	case *path:
		b.WriteString("(compose ")
		dump(b, v.filter)
		b.WriteByte(' ')
		dump(b, v.rel)
		b.WriteByte(')')
	case *filterExpr:
		b.WriteString("(filter ")
		dump(b, v.primary)
		for _, p := range v.predicates {
			b.WriteString(" [")
			dump(b, p)
			b.WriteByte(']')
		}
		b.WriteByte(')')
	case *unionExpr:
		b.WriteString("(union ")
		dump(b, v.lhs)
		b.WriteByte(' ')
		dump(b, v.rhs)
		b.WriteByte(')')
	case *binaryExpr:
		fmt.Fprintf(b, "(%s ", v.op)
		dump(b, v.lhs)
		b.WriteByte(' ')
		dump(b, v.rhs)
		b.WriteByte(')')
	case *unaryMinus:
		b.WriteString("(neg ")
		dump(b, v.expr)
		b.WriteByte(')')
	case *literalExpr:
		fmt.Fprintf(b, "%q", v.value)
	case *numberExpr:
		b.WriteString(strconv.FormatFloat(v.value, 'g', -1, 64))
	case *variableExpr:
		b.WriteString("$" + v.name)
	case *functionCall:
		fmt.Fprintf(b, "(%s", v.name)
		for _, a := range v.args {
			b.WriteByte(' ')
			dump(b, a)
		}
		b.WriteByte(')')
	default:
		b.WriteString("?")
	}
}

func dumpStep(b *strings.Builder, st *step) {
	fmt.Fprintf(b, "%s::%s", st.axis, st.test)
	for _, p := range st.predicates {
		b.WriteString("[")
		dump(b, p)
		b.WriteString("]")
	}
}
