package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/inoxlang/tickscript/internal/ast"
	"github.com/inoxlang/tickscript/internal/compound"
	"github.com/tidwall/tinylru"
)

const (
	MODULE_TREE_FILE_EXTENSION   = ".tsc.json"
	MODULE_SOURCE_FILE_EXTENSION = ".tsc"
	DEFAULT_MODULE_CACHE_SIZE    = 64
	MODULE_NAME_SEPARATOR        = "."

	MALFORMED_MODULE_TREE_KEY = "malformed_module_tree"
)

// A ProgramLoader provides the statement tree of a module given its dot-separated name.
// Malformed modules should be reported with a *SyntaxError, missing modules with ErrModuleNotFound.
type ProgramLoader interface {
	LoadModule(moduleName string) (*ast.Module, error)
}

// A SourceParser turns source text into a statement tree, errors should be *SyntaxError values.
type SourceParser interface {
	ParseModule(moduleName string, source []byte) (*ast.Module, error)
}

// ModuleMap is an in-memory ProgramLoader.
type ModuleMap map[string]*ast.Module

func (m ModuleMap) LoadModule(moduleName string) (*ast.Module, error) {
	module, ok := m[moduleName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, moduleName)
	}
	return module, nil
}

// CheckModuleName checks that name is made of identifiers separated by dots.
func CheckModuleName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidModuleName)
	}
	for _, segment := range strings.Split(name, MODULE_NAME_SEPARATOR) {
		if !isIdentifier(segment) {
			return fmt.Errorf("%w: %q", ErrInvalidModuleName, name)
		}
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// ModulePath returns the path of a module file relative to the root of the module filesystem:
// a.b is stored in a/b<extension>.
func ModulePath(moduleName string, extension string) string {
	return path.Join(strings.Split(moduleName, MODULE_NAME_SEPARATOR)...) + extension
}

// A FileLoader loads modules from a filesystem, either as serialized statement trees or as source files if a
// SourceParser is set. Decoded modules are cached until their file changes.
type FileLoader struct {
	fs     billy.Filesystem
	parser SourceParser //can be nil
	cache  tinylru.LRU
}

type cachedModule struct {
	modTime time.Time
	size    int64
	module  *ast.Module
}

func NewFileLoader(fs billy.Filesystem, parser SourceParser, cacheSize int) *FileLoader {
	if cacheSize <= 0 {
		cacheSize = DEFAULT_MODULE_CACHE_SIZE
	}
	loader := &FileLoader{fs: fs, parser: parser}
	loader.cache.Resize(cacheSize)
	return loader
}

func (l *FileLoader) LoadModule(moduleName string) (*ast.Module, error) {
	if err := CheckModuleName(moduleName); err != nil {
		return nil, err
	}

	filePath := ModulePath(moduleName, MODULE_TREE_FILE_EXTENSION)
	info, err := l.fs.Stat(filePath)
	isSource := false

	if errors.Is(err, os.ErrNotExist) && l.parser != nil {
		filePath = ModulePath(moduleName, MODULE_SOURCE_FILE_EXTENSION)
		info, err = l.fs.Stat(filePath)
		isSource = true
	}

	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, moduleName)
	}
	if err != nil {
		return nil, err
	}

	if v, ok := l.cache.Get(filePath); ok {
		cached := v.(*cachedModule)
		if cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
			return cached.module, nil
		}
	}

	content, err := l.readFile(filePath)
	if err != nil {
		return nil, err
	}

	var module *ast.Module
	if isSource {
		module, err = l.parser.ParseModule(moduleName, content)
	} else {
		module, err = decodeModuleTree(moduleName, content)
	}
	if err != nil {
		return nil, err
	}

	l.cache.Set(filePath, &cachedModule{modTime: info.ModTime(), size: info.Size(), module: module})
	return module, nil
}

func (l *FileLoader) readFile(filePath string) ([]byte, error) {
	f, err := l.fs.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// WriteModuleTree serializes module and writes it in the filesystem as the tree file of moduleName.
func WriteModuleTree(fs billy.Filesystem, moduleName string, module *ast.Module) error {
	if err := CheckModuleName(moduleName); err != nil {
		return err
	}
	data, err := compound.Marshal(ast.EncodeModule(module))
	if err != nil {
		return err
	}

	filePath := ModulePath(moduleName, MODULE_TREE_FILE_EXTENSION)
	if err := fs.MkdirAll(path.Dir(filePath), 0700); err != nil {
		return err
	}
	f, err := fs.Create(filePath)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	return errors.Join(err, f.Close())
}

func decodeModuleTree(moduleName string, data []byte) (*ast.Module, error) {
	c, err := compound.Unmarshal(data)
	if err == nil {
		var module *ast.Module
		module, err = ast.DecodeModule(c)
		if err == nil {
			return module, nil
		}
	}
	return nil, &SyntaxError{
		Module: moduleName,
		Line:   NO_POSITION,
		Column: NO_POSITION,
		Key:    MALFORMED_MODULE_TREE_KEY,
		Args:   []string{err.Error()},
	}
}
