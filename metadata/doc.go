// Package metadata provides typed metadata documents and the filter
// expression language used to narrow vector search results.
//
// A filter is a map from field name to a condition. A bare scalar condition
// is an implicit equality test; a map condition holds "$"-prefixed operator
// keys ($eq, $ne, $gt, $gte, $lt, $lte, $in, $nin, $exists, $contains).
// Multiple fields, and multiple operators under one field, combine with AND.
//
// Filters are validated up front by ParseFilter: unknown operators, operator
// sigils on field names, and operand type mismatches are reported as errors
// wrapping ErrInvalidFilter before any document is evaluated. Evaluation
// itself never fails; a record either matches or it does not.
//
// A field that is absent from a document evaluates as null: it fails $eq,
// passes $ne, fails the numeric comparisons, and satisfies {"$exists": false}.
//
// When the stored field value is itself an array, $in matches if any stored
// element appears in the operand list (set intersection), and $nin is its
// negation. For scalar field values $in is a plain membership test.
package metadata
