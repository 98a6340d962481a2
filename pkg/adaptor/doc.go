// Package adaptor compiles connection adaptor expressions.
//
// An adaptor is an HCL expression evaluated for every message crossing a connection. The
// expression sees two variables, data and context, and its value becomes the data of the
// delivered message:
//
//	upper(data.name)
//	{ total = data.a + data.b, source = context.origin }
package adaptor
