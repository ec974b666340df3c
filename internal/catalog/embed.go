package catalog

import "embed"

// builtinTables embeds the shipped dispatch table definitions.
//
//go:embed tables/*.yaml
var builtinTables embed.FS

// BuiltinTablesFS returns the embedded filesystem containing the built-in
// dispatch tables.
func BuiltinTablesFS() embed.FS {
	return builtinTables
}
