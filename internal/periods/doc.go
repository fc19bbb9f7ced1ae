// Package periods loads period sets from JSON or YAML input.
//
// Two shapes are accepted. A bare list of lists:
//
//	[["A", "B"], ["A"], ["A", "C"]]
//
// or an object carrying an explicit start period:
//
//	periods:
//	  - [A, B]
//	  - [A]
//	start_period: 4
//
// Items may be strings or integers; integers are converted to their decimal
// string form. Input is checked against an embedded CUE schema before
// conversion, so a float item or an unknown key is reported as a
// *LoadError rather than silently coerced.
package periods
