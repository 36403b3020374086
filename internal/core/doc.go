// Package core provides the campaign split pipeline.
//
// This package holds all domain logic independent of any output technology.
// Outputs go through the [Sink] interface; the CLI, a database loader or a
// test can drive it without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Group Definitions: Registered via the registry, each group has a column
//     signature, required columns, a reconciliation step and field specs.
//   - Discovery: Archives are read entry by entry and each table is
//     classified into every group whose signature it carries.
//   - Service: The main entry point; [Service.Run] executes one pass.
//   - Sinks: Destinations for normalized group tables.
//
// # Group Registry
//
// Groups are registered at init time using [Register]. Each [GroupDefinition]
// contains everything needed to produce one output table:
//
//	core.Register(GroupDefinition{
//	    Info:      GroupInfo{Key: "economics", Label: "Economics", Order: 3},
//	    Signature: []string{"cons_price_idx", "euribor_three_months"},
//	    Match:     MatchAll,
//	    FieldSpecs: []FieldSpec{
//	        {Name: "client_id"},
//	        {Name: "cons_price_idx"},
//	        {Name: "euribor_three_months"},
//	    },
//	})
//
// # Pipeline
//
// A run is strictly sequential:
//
//  1. [Discover] lists archives under the input directory in lexical order
//  2. Every entry is parsed (BOM skipped, non-UTF-8 input fatal) and classified
//  3. For each group in order, [Unify] concatenates its sources and applies
//     the group's reconciliation
//  4. [Normalize] projects the output columns and applies per-field rules
//  5. Each sink receives the normalized table
//
// Groups with no sources or no rows are skipped and produce no output.
//
// # Error Handling
//
// The first fatal error aborts the run. Technical errors are mapped to
// operator-friendly messages using [MapError]:
//
//   - ARC001-ARC004: Archive errors (bad zip, unreadable input)
//   - CSV001-CSV003: Entry parse errors
//   - SCH001-SCH002: Schema errors (missing required columns)
//   - OUT001-OUT003: Output errors
//   - DB001-DB005: PostgreSQL sink errors
//   - RUN001-RUN002: Timeout and cancellation
package core
