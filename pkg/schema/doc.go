// Package schema describes and validates the configuration shape of module factories.
//
// A Shape maps configuration keys to a Field (type, default value, description). Types use
// the names of HCL type expressions so that factory catalogs can declare them directly:
//
//	shape := schema.Shape{
//	    "title":   {Type: schema.String(), Default: "add"},
//	    "offset":  {Type: schema.Number(), Default: 0},
//	    "tags":    {Type: schema.List(schema.String())},
//	}
//
//	data := shape.Complete(map[string]any{"offset": 2})
//	if err := schema.Validate(shape, data); err != nil {
//	    // *schema.AggregateError listing every failing key
//	}
//
// Type names can be parsed back with ParseType ("string", "number", "int", "bool", "any",
// "list(T)", "map(T)").
package schema
