/*
Package scenario models the scenario collection document and the editing
policies applied to its sections.

The collection is kept as raw JSON: records are located with gjson and only
the edited record's Sections are replaced (sjson), so attributes this package
does not know about survive an update byte-for-byte. The document is then
re-indented as a whole.
*/
package scenario
