// Package schema generates JSON Schema (Draft 7) describing the value tree
// accepted by [cns.Writer] for a parsed [cns.Model].
//
// The schema follows the nested form produced by [cns.Model.Defaults]:
//
//   - Sections are objects titled with the section name.
//   - Parameters are integer, number or string schemas. Choice parameters
//     carry an enum, file parameters the "file" format, and every parameter
//     carries its template value as default and its label as description.
//   - Repeatable components are arrays with minItems and maxItems, keyed
//     by their name with the placeholder left in place.
//   - Names inside a repeatable section contain its placeholder; they are
//     emitted as patternProperties with the placeholder matching any index.
//
// Access levels and visibility are recorded in the x-accesslevels,
// x-hidden and x-multi-index extension keywords, and the root lists the
// declared levels under x-levels. [WithLevel] drops every component not
// visible at one level.
//
// # Usage
//
//	m, err := cns.NewParser().Parse(data)
//	if err != nil {
//		return err
//	}
//
//	s, err := schema.NewGenerator(schema.WithStrict(true)).Generate(m)
package schema
