package rtadapt

import (
	"log/slog"
	"path/filepath"
	"strings"

	"code.hybscloud.com/glasrt/namespace"
)

const (
	primsPrefix     = "prim."
	compilersPrefix = "compile."
)

// Default is the composed result of init_default: a base namespace with
// primitives and builtin compilers installed, plus whatever configuration
// source was found (nil if none exists yet at the discovered path).
type Default struct {
	NS         *namespace.Namespace
	ConfigPath string
	ConfigSrc  []byte
	Loader     *Loader
}

// InitDefault composes ns_load_prims, ns_load_builtin_compilers, and
// configuration discovery (spec.md §6 "init_default composes these and
// looks up a user configuration from $GLAS_CONF or a platform-specific
// path"). vfs may be nil to always read the filesystem directly. A
// missing configuration file is not an error: Default.ConfigSrc is nil
// and the caller decides whether that is fatal.
func InitDefault(vfs VFS, log *slog.Logger) (*Default, error) {
	ns := namespace.Empty()
	ns = NsLoadPrims(ns, primsPrefix)
	ns = NsLoadBuiltinCompilers(ns, compilersPrefix)

	path, err := DiscoverConfigPath()
	if err != nil {
		return nil, err
	}

	loader := NewLoader(vfs, log)
	src, err := loader.LoadBinary(path)
	if err != nil {
		// Absence of a user config is not fatal: init_default still
		// returns the primitive/compiler namespace.
		return &Default{NS: ns, ConfigPath: path, Loader: loader}, nil
	}
	return &Default{NS: ns, ConfigPath: path, ConfigSrc: src, Loader: loader}, nil
}

// CompilerNameFor returns the ns_load_builtin_compilers entry name
// (compilers prefix + extension) matching path's file extension, or "" if
// the extension has no registered compiler.
func CompilerNameFor(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	for _, e := range builtinCompilerExts {
		if e == ext {
			return compilersPrefix + e
		}
	}
	return ""
}
