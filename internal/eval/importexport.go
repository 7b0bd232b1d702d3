package eval

import (
	"embedscript/internal/ast"
	"embedscript/internal/errors"
	"embedscript/internal/module"
	"embedscript/internal/value"
)

// execImport resolves st.Path via the host's Resolver and pushes the
// returned Module onto e.Imports for the remainder of the enclosing
// block. The module is additionally indexed
// under its alias (or raw path, lacking an `as` clause) so
// `alias::name` references can find it directly instead of scanning
// the whole import list.
func (e *Evaluator) execImport(st *ast.ImportStmt) error {
	if e.Resolver == nil {
		return errors.Newf(errors.KindSystem, st.Position, "import requires a configured resolver")
	}
	pathVal, err := e.evalExpr(st.Path)
	if err != nil {
		return err
	}
	pathStr, ok := pathVal.(value.StrValue)
	if !ok {
		return errors.MismatchDataType(st.Path.Pos(), "string", pathVal.Kind().String())
	}
	path := pathStr.String()

	mod, err := e.Resolver.Resolve(path)
	if err != nil {
		return errors.Newf(errors.KindSystem, st.Position, "import %q failed: %s", path, err)
	}

	e.Imports = append(e.Imports, mod)
	alias := st.Alias
	if alias == "" {
		alias = path
	}
	if e.importAliases == nil {
		e.importAliases = map[string]*module.Module{}
	}
	e.importAliases[alias] = mod
	e.importAliasOrder = append(e.importAliasOrder, alias)
	return nil
}

// execExport marks names as part of the current script's public
// surface. A name still bound in the live Scope is snapshotted into a
// zero-argument Public script function under its export name; Module
// has no separate variable-constant storage, so a 0-arity function is
// the engine's uniform representation for a namespaced constant (same
// convention evalNamespacedVariable reads back). A name that instead
// already identifies a script function in Lib is simply re-registered
// Public under its export name, for every arity it was defined at, so a
// PublicOnly-filtered merge keeps it reachable.
func (e *Evaluator) execExport(st *ast.ExportStmt) error {
	for _, n := range st.Names {
		exportName := n.Name
		if n.Alias != "" {
			exportName = n.Alias
		}

		if raw, ok := e.Scope.Get(n.Name); ok {
			snapshot, err := value.Unwrap(raw)
			if err != nil {
				return err
			}
			e.Lib.RegisterScript(exportName, 0, module.Public, &module.ScriptDef{
				Body: &ast.ReturnStmt{
					Position: st.Position,
					Value:    &ast.LiteralExpr{Position: st.Position, Value: snapshot},
				},
			})
			continue
		}

		for _, fn := range e.Lib.FunctionsByName(n.Name) {
			if fn.Kind() != module.KindScript {
				continue
			}
			def := fn.Script()
			e.Lib.RegisterScript(exportName, len(def.Params), module.Public, def)
		}
	}
	return nil
}
