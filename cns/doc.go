// Package cns reads CNS input files annotated with structured comments and
// turns them into a hierarchical parameter model, and writes them back from
// a template and a value tree.
//
// # Input format
//
// CNS input files carry their user-facing form in comments. Each line is
// classified by [Classify] into one [LineKind]; the first matching rule
// wins:
//
//	{!accesslevel easy "Easy"}            access level declaration
//	! #level-min=easy #type=integer        attributes for the next component
//	{+ choice: a "b c" d +}                choices for the previous parameter
//	{== Molecule N ==}                     section header; '=' count is depth
//	{===>} prot_coor_N="mol.pdb";          parameter assignment
//	numhis=5;                              plain assignment, ignored
//	{* Molecular type *}                   paragraph or label
//	! comment                              ignored
//	{ comment }                            ignored
//
// Access levels must be declared before the first section, parameter or
// paragraph; a later declaration fails with [ErrMisplacedDeclaration].
//
// Consecutive paragraph lines form one paragraph. If a section or parameter
// follows, the paragraph becomes its label; a blank line first turns it into
// a standalone paragraph component.
//
// # Attributes
//
// Recognized attribute keys are:
//
//   - type: integer, float, string (or text), file or choice. Without it the
//     type is inferred from choices and the default value.
//   - hidden: valueless; hides the component.
//   - multi-index, multi-min, multi-max: make the component repeatable. The
//     index is a placeholder token that every name below the component must
//     contain. multi-min defaults to 1 and multi-max to unbounded (-1).
//   - level-min, level-max, level-include, level-exclude: restrict the
//     access levels the component is visible to.
//
// Unknown keys and {+ table: ... +} lines produce a [WarnUnsupportedAttribute]
// warning and are dropped.
//
// # Access levels
//
// A component's allowed levels are computed by [Squash] from its enclosing
// section's allowed levels: level-min and level-max cut the range, includes
// are added back only where the enclosing section allows them, and excludes
// are removed. Visibility can therefore only narrow with depth.
//
// # Rendering
//
// [Writer.Render] replays a template line by line. Values from a [Values]
// tree replace parameter values in place, and repeatable sections and
// parameters are emitted once per requested index with their placeholder
// replaced. Value trees can be decoded from JSON, YAML or TOML with
// [DecodeValues]; [Model.Defaults] returns the tree of template defaults.
//
// # Errors and warnings
//
// Structural errors are returned as [*Error] and wrap one of the sentinel
// errors, such as [ErrPlaceholderMissing]. Recoverable issues are collected
// as [Warning] values; [WithFatalWarnings] turns them into errors.
package cns
